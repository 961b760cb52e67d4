package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/fxnlabs/clfacade/fixtures"
	"github.com/fxnlabs/clfacade/internal/config"
	"github.com/fxnlabs/clfacade/pkg/cl"
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func infoCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the platform, the negotiated version and its devices",
		Action: func(c *cli.Context) (err error) {
			s, err := openSession(c.Context, e.cfg, e.log)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, s.Close()) }()

			out := c.App.Writer
			fmt.Fprintln(out, figure.NewFigure("clfacade", "", true).String())
			if err := printInfo(out, s.rt); err != nil {
				return err
			}
			if s.Serving() {
				fmt.Fprintln(out, "Metrics are being served; press Ctrl-C to exit.")
				s.Wait()
			}
			return nil
		},
	}
}

func printInfo(out io.Writer, rt *cl.Runtime) error {
	name, err := infoString(rt.GetPlatformInfo(rt.Platform(), driver.PlatformName))
	if err != nil {
		return err
	}
	vendor, err := infoString(rt.GetPlatformInfo(rt.Platform(), driver.PlatformVendor))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Platform:   %s (%s)\n", name, vendor)
	fmt.Fprintf(out, "Reported:   %s\n", rt.ReportedVersion())
	fmt.Fprintf(out, "Negotiated: %s\n\n", color.GreenString(rt.Version().String()))

	devices, err := rt.Devices(driver.DeviceTypeAll)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Device", "Reported", "Usable"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, d := range devices {
		dname, err := infoString(rt.GetDeviceInfo(d, driver.DeviceName))
		if err != nil {
			return err
		}
		reported, err := infoString(rt.GetDeviceInfo(d, driver.DeviceVersion))
		if err != nil {
			return err
		}
		usable := "-"
		if v, err := rt.DeviceVersion(d); err == nil {
			usable = v.String()
		}
		table.Append([]string{fmt.Sprint(i), dname, reported, usable})
	}
	table.Render()
	return nil
}

func infoString(raw []byte, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return driver.DecodeString(raw), nil
}

func capsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "caps",
		Usage: "List the operations available at a version",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "version",
				Usage: "Version tag such as 1.2; defaults to the version negotiated with the configured runtime",
			},
			&cli.BoolFlag{
				Name:  "deprecated",
				Usage: "Only list deprecated operations",
			},
		},
		Action: func(c *cli.Context) (err error) {
			var v capability.Version
			if tag := c.String("version"); tag != "" {
				if v, err = capability.ParseTag(tag); err != nil {
					return err
				}
			} else {
				s, err := openSession(c.Context, e.cfg, e.log)
				if err != nil {
					return err
				}
				v = s.rt.Version()
				if err := s.Close(); err != nil {
					return err
				}
			}
			printCaps(c.App.Writer, capability.Standard(), v, c.Bool("deprecated"))
			return nil
		},
	}
}

func printCaps(out io.Writer, reg *capability.Registry, v capability.Version, onlyDeprecated bool) {
	ops := reg.Operations(v)
	if onlyDeprecated {
		ops = reg.Deprecated(v)
	}
	revised := make(map[capability.Op]bool)
	for _, op := range reg.Revised(v) {
		revised[op] = true
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Operation", "Since", "Parameters", "Returns", "Status"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, op := range capability.Sorted(ops) {
		sig, _ := reg.Lookup(v, op)
		def, _ := reg.Definition(op)
		params := make([]string, len(sig.Params))
		for i, p := range sig.Params {
			params[i] = p.String()
		}
		var status []string
		if sig.DeprecatedAt(v) {
			status = append(status, color.YellowString("deprecated in %s", sig.Deprecated))
		}
		if r := def.Removed(); r != capability.VersionNone {
			status = append(status, color.RedString("removed in %s", r))
		}
		if revised[op] {
			status = append(status, color.CyanString("revised: %s", sig.Note))
		}
		table.Append([]string{string(op), def.Since().String(), strings.Join(params, ", "), sig.Result.String(), strings.Join(status, "; ")})
	}
	table.SetFooter([]string{fmt.Sprintf("%d operations", ops.Cardinality()), v.String(), "", "", ""})
	table.Render()
}

func negotiateCommand() *cli.Command {
	return &cli.Command{
		Name:      "negotiate",
		Usage:     "Floor a runtime version string onto a supported version",
		ArgsUsage: "\"OpenCL <major>.<minor> <vendor info>\"",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("negotiate takes exactly one version string, got %d arguments", c.NArg())
			}
			v, err := capability.Negotiate(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, v)
			return nil
		},
	}
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Show operations added and removed between two versions",
		ArgsUsage: "<from> <to>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("diff takes two version tags, got %d arguments", c.NArg())
			}
			from, err := capability.ParseTag(c.Args().Get(0))
			if err != nil {
				return err
			}
			to, err := capability.ParseTag(c.Args().Get(1))
			if err != nil {
				return err
			}
			printDiff(c.App.Writer, capability.Standard(), from, to)
			return nil
		},
	}
}

func printDiff(out io.Writer, reg *capability.Registry, from, to capability.Version) {
	added, removed := reg.Diff(from, to)
	fmt.Fprintf(out, "%s -> %s: %d added, %d removed\n", from, to, added.Cardinality(), removed.Cardinality())
	for _, op := range capability.Sorted(added) {
		fmt.Fprintln(out, color.GreenString("+ %s", op))
	}
	for _, op := range capability.Sorted(removed) {
		fmt.Fprintln(out, color.RedString("- %s", op))
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a commented config template",
		Action: func(c *cli.Context) error {
			path := c.String("config")
			if err := config.WriteTemplate(path, fixtures.ConfigTemplate); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
			return nil
		},
	}
}

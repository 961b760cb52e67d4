package sim

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func (r *Runtime) CreateContext(properties []uintptr, devices []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateContext", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(devices) == 0 {
		return 0, driver.InvalidValue
	}
	if st := r.getAll(driver.KindDevice, devices); st != driver.Success {
		return 0, st
	}
	for i := 0; i < len(properties) && properties[i] != 0; i += 2 {
		if i+1 >= len(properties) {
			return 0, driver.InvalidProperty
		}
		switch properties[i] {
		case driver.ContextPlatform:
			if driver.Ptr(properties[i+1]) != r.platform {
				return 0, driver.InvalidPlatform
			}
		default:
			return 0, driver.InvalidProperty
		}
	}
	return r.alloc(&object{
		kind:       driver.KindContext,
		devices:    append([]driver.Ptr(nil), devices...),
		properties: append([]uintptr(nil), properties...),
	}), driver.Success
}

func (r *Runtime) CreateSubDevices(device driver.Ptr, properties []uintptr) ([]driver.Ptr, driver.Status) {
	if st := r.enter("CreateSubDevices", capability.V12); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, st := r.get(driver.KindDevice, device)
	if st != driver.Success {
		return nil, st
	}
	if len(properties) < 2 {
		return nil, driver.InvalidValue
	}
	var units []int
	switch properties[0] {
	case driver.DevicePartitionEqually:
		n := int(properties[1])
		if n <= 0 || n > parent.units {
			return nil, driver.InvalidDevicePartitionCount
		}
		for i := 0; i < parent.units/n; i++ {
			units = append(units, n)
		}
	case driver.DevicePartitionByCounts:
		total := 0
		for _, c := range properties[1:] {
			if c == driver.DevicePartitionByCountsListEnd {
				break
			}
			units = append(units, int(c))
			total += int(c)
		}
		if len(units) == 0 || total > parent.units {
			return nil, driver.InvalidDevicePartitionCount
		}
	case driver.DevicePartitionByAffinityDomain:
		return nil, driver.DevicePartitionFailed
	default:
		return nil, driver.InvalidValue
	}
	if len(units) == 0 {
		return nil, driver.DevicePartitionFailed
	}

	out := make([]driver.Ptr, 0, len(units))
	for _, u := range units {
		out = append(out, r.alloc(&object{
			kind:       driver.KindDevice,
			parent:     device,
			deviceType: parent.deviceType &^ driver.DeviceTypeDefault,
			units:      u,
			index:      parent.index,
		}))
	}
	return out, driver.Success
}

func (r *Runtime) queueCommon(context, device driver.Ptr) (*object, driver.Status) {
	ctx, st := r.get(driver.KindContext, context)
	if st != driver.Success {
		return nil, st
	}
	if _, st := r.get(driver.KindDevice, device); st != driver.Success {
		return nil, st
	}
	if !ctx.hasDevice(device) {
		return nil, driver.InvalidDevice
	}
	return ctx, driver.Success
}

const hostQueueProps = driver.QueueOutOfOrderExecModeEnable | driver.QueueProfilingEnable

func (r *Runtime) CreateCommandQueue(context, device driver.Ptr, properties driver.QueueProperties) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateCommandQueue", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.queueCommon(context, device); st != driver.Success {
		return 0, st
	}
	if properties&^hostQueueProps != 0 {
		return 0, driver.InvalidValue
	}
	return r.alloc(&object{
		kind:       driver.KindCommandQueue,
		context:    context,
		device:     device,
		queueProps: properties,
	}), driver.Success
}

func (r *Runtime) CreateCommandQueueWithProperties(context, device driver.Ptr, properties []uint64) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateCommandQueueWithProperties", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, st := r.queueCommon(context, device)
	if st != driver.Success {
		return 0, st
	}
	var props driver.QueueProperties
	size, hasSize := 0, false
	for i := 0; i < len(properties) && properties[i] != 0; i += 2 {
		if i+1 >= len(properties) {
			return 0, driver.InvalidValue
		}
		switch properties[i] {
		case driver.QueuePropertiesKey:
			props = driver.QueueProperties(properties[i+1])
		case driver.QueueSizeKey:
			size, hasSize = int(properties[i+1]), true
		default:
			return 0, driver.InvalidValue
		}
	}
	all := hostQueueProps | driver.QueueOnDevice | driver.QueueOnDeviceDefault
	if props&^all != 0 {
		return 0, driver.InvalidValue
	}
	onDevice := props&driver.QueueOnDevice != 0
	if onDevice && props&driver.QueueOutOfOrderExecModeEnable == 0 {
		return 0, driver.InvalidQueueProperties
	}
	if props&driver.QueueOnDeviceDefault != 0 && !onDevice {
		return 0, driver.InvalidValue
	}
	if hasSize && (!onDevice || size <= 0 || size > 256*1024) {
		return 0, driver.InvalidValue
	}
	if onDevice && !hasSize {
		size = 16 * 1024
	}
	q := r.alloc(&object{
		kind:       driver.KindCommandQueue,
		context:    context,
		device:     device,
		queueProps: props,
		queueSize:  size,
		queueList:  append([]uint64(nil), properties...),
	})
	if props&driver.QueueOnDeviceDefault != 0 {
		if ctx.defaultQueues == nil {
			ctx.defaultQueues = map[driver.Ptr]driver.Ptr{}
		}
		ctx.defaultQueues[device] = q
	}
	return q, driver.Success
}

func (r *Runtime) SetCommandQueueProperty(queue driver.Ptr, properties driver.QueueProperties, enable bool) (driver.QueueProperties, driver.Status) {
	if st := r.enter("SetCommandQueueProperty", capability.V10); st != driver.Success {
		return 0, st
	}
	if r.tier > capability.V10 {
		return 0, driver.InvalidOperation
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.get(driver.KindCommandQueue, queue)
	if st != driver.Success {
		return 0, st
	}
	if properties&^hostQueueProps != 0 {
		return 0, driver.InvalidValue
	}
	old := q.queueProps
	if enable {
		q.queueProps |= properties
	} else {
		q.queueProps &^= properties
	}
	return old, driver.Success
}

func (r *Runtime) SetDefaultDeviceCommandQueue(context, device, queue driver.Ptr) driver.Status {
	if st := r.enter("SetDefaultDeviceCommandQueue", capability.V21); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, st := r.queueCommon(context, device)
	if st != driver.Success {
		return st
	}
	q, st := r.get(driver.KindCommandQueue, queue)
	if st != driver.Success {
		return st
	}
	if q.queueProps&driver.QueueOnDevice == 0 || q.context != context || q.device != device {
		return driver.InvalidCommandQueue
	}
	if ctx.defaultQueues == nil {
		ctx.defaultQueues = map[driver.Ptr]driver.Ptr{}
	}
	ctx.defaultQueues[device] = queue
	return driver.Success
}

func (r *Runtime) Flush(queue driver.Ptr) driver.Status {
	if st := r.enter("Flush", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, st := r.get(driver.KindCommandQueue, queue)
	return st
}

func (r *Runtime) Finish(queue driver.Ptr) driver.Status {
	if st := r.enter("Finish", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.get(driver.KindCommandQueue, queue); st != driver.Success {
		return st
	}
	for !r.closed() {
		pending := false
		for _, o := range r.objects {
			if o.kind == driver.KindEvent && o.queue == queue && !o.done() {
				pending = true
				break
			}
		}
		if !pending {
			return driver.Success
		}
		r.cond.Wait()
	}
	return driver.OutOfResources
}

const accessFlags = driver.MemReadWrite | driver.MemWriteOnly | driver.MemReadOnly

func checkMemFlags(flags driver.MemFlags, host []byte, size int) driver.Status {
	n := 0
	for _, f := range []driver.MemFlags{driver.MemReadWrite, driver.MemWriteOnly, driver.MemReadOnly} {
		if flags&f != 0 {
			n++
		}
	}
	if n > 1 {
		return driver.InvalidValue
	}
	hostFlags := flags & (driver.MemUseHostPtr | driver.MemCopyHostPtr)
	if flags&driver.MemUseHostPtr != 0 && flags&(driver.MemCopyHostPtr|driver.MemAllocHostPtr) != 0 {
		return driver.InvalidValue
	}
	if (hostFlags != 0) != (host != nil) {
		return driver.InvalidHostPtr
	}
	if host != nil && len(host) < size {
		return driver.InvalidHostPtr
	}
	return driver.Success
}

func storage(flags driver.MemFlags, host []byte, size int) []byte {
	if flags&driver.MemUseHostPtr != 0 {
		return host[:size]
	}
	data := make([]byte, size)
	if flags&driver.MemCopyHostPtr != 0 {
		copy(data, host)
	}
	return data
}

func (r *Runtime) CreateBuffer(context driver.Ptr, flags driver.MemFlags, size int, host []byte) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateBuffer", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.get(driver.KindContext, context); st != driver.Success {
		return 0, st
	}
	if size <= 0 || size > globalMemSize {
		return 0, driver.InvalidBufferSize
	}
	if st := checkMemFlags(flags, host, size); st != driver.Success {
		return 0, st
	}
	if flags&accessFlags == 0 {
		flags |= driver.MemReadWrite
	}
	return r.alloc(&object{
		kind:    driver.KindMem,
		context: context,
		memType: driver.MemObjectBuffer,
		flags:   flags,
		data:    storage(flags, host, size),
		hostPtr: flags&driver.MemUseHostPtr != 0,
	}), driver.Success
}

func (r *Runtime) CreateSubBuffer(buffer driver.Ptr, flags driver.MemFlags, origin, size int) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateSubBuffer", capability.V11); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, st := r.get(driver.KindMem, buffer)
	if st != driver.Success {
		return 0, st
	}
	if parent.memType != driver.MemObjectBuffer || parent.parent != 0 {
		return 0, driver.InvalidMemObject
	}
	if flags&(driver.MemUseHostPtr|driver.MemAllocHostPtr|driver.MemCopyHostPtr) != 0 {
		return 0, driver.InvalidValue
	}
	if size <= 0 {
		return 0, driver.InvalidBufferSize
	}
	if origin < 0 || origin+size > len(parent.data) {
		return 0, driver.InvalidValue
	}
	if origin%baseAddrAlign != 0 {
		return 0, driver.MisalignedSubBufferOffset
	}
	if flags&accessFlags == 0 {
		flags |= parent.flags & accessFlags
	}
	return r.alloc(&object{
		kind:    driver.KindMem,
		context: parent.context,
		parent:  buffer,
		memType: driver.MemObjectBuffer,
		flags:   flags,
		data:    parent.data[origin : origin+size : origin+size],
		offset:  origin,
	}), driver.Success
}

var channelCounts = map[uint32]int{
	driver.ChannelR:    1,
	driver.ChannelRG:   2,
	driver.ChannelRGBA: 4,
	driver.ChannelBGRA: 4,
}

var channelSizes = map[uint32]int{
	driver.ChannelUnormInt8:     1,
	driver.ChannelUnsignedInt8:  1,
	driver.ChannelSignedInt32:   4,
	driver.ChannelUnsignedInt32: 4,
	driver.ChannelHalfFloat:     2,
	driver.ChannelFloat:         4,
}

func pixelSize(format driver.ImageFormat) (int, driver.Status) {
	n, ok := channelCounts[format.ChannelOrder]
	if !ok {
		return 0, driver.ImageFormatNotSupported
	}
	s, ok := channelSizes[format.ChannelDataType]
	if !ok {
		return 0, driver.ImageFormatNotSupported
	}
	if format.ChannelOrder == driver.ChannelBGRA && s != 1 {
		return 0, driver.InvalidImageFormatDescriptor
	}
	return n * s, driver.Success
}

func (r *Runtime) newImage(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, desc driver.ImageDesc, host []byte) (driver.Ptr, driver.Status) {
	if _, st := r.get(driver.KindContext, context); st != driver.Success {
		return 0, st
	}
	px, st := pixelSize(format)
	if st != driver.Success {
		return 0, st
	}
	w, h, d, layers := desc.Width, max(desc.Height, 1), max(desc.Depth, 1), max(desc.ArraySize, 1)
	switch desc.Type {
	case driver.MemObjectImage1D, driver.MemObjectImage1DBuffer:
		h, d, layers = 1, 1, 1
	case driver.MemObjectImage1DArray:
		h, d = 1, 1
	case driver.MemObjectImage2D:
		d, layers = 1, 1
	case driver.MemObjectImage2DArray:
		d = 1
	case driver.MemObjectImage3D:
		layers = 1
	default:
		return 0, driver.InvalidImageDescriptor
	}
	if w <= 0 || (desc.Type != driver.MemObjectImage1D && desc.Type != driver.MemObjectImage1DArray && desc.Type != driver.MemObjectImage1DBuffer && desc.Height <= 0) ||
		(desc.Type == driver.MemObjectImage3D && desc.Depth <= 0) || w > 16384 || h > 16384 || d > 2048 {
		return 0, driver.InvalidImageSize
	}
	rowPitch := desc.RowPitch
	if rowPitch == 0 {
		rowPitch = w * px
	} else if host == nil || rowPitch < w*px {
		return 0, driver.InvalidImageDescriptor
	}
	slicePitch := desc.SlicePitch
	if slicePitch == 0 {
		slicePitch = rowPitch * h
	} else if host == nil || slicePitch < rowPitch*h {
		return 0, driver.InvalidImageDescriptor
	}
	size := slicePitch * d * layers
	if st := checkMemFlags(flags, host, size); st != driver.Success {
		return 0, st
	}
	if flags&accessFlags == 0 {
		flags |= driver.MemReadWrite
	}
	desc.RowPitch, desc.SlicePitch = rowPitch, slicePitch
	return r.alloc(&object{
		kind:    driver.KindMem,
		context: context,
		memType: desc.Type,
		flags:   flags,
		format:  format,
		desc:    desc,
		data:    storage(flags, host, size),
		hostPtr: flags&driver.MemUseHostPtr != 0,
	}), driver.Success
}

func (r *Runtime) CreateImage(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, desc driver.ImageDesc, host []byte) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateImage", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newImage(context, flags, format, desc, host)
}

func (r *Runtime) CreateImage2D(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, width, height, rowPitch int, host []byte) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateImage2D", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newImage(context, flags, format, driver.ImageDesc{
		Type:     driver.MemObjectImage2D,
		Width:    width,
		Height:   height,
		RowPitch: rowPitch,
	}, host)
}

func (r *Runtime) CreateImage3D(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, width, height, depth, rowPitch, slicePitch int, host []byte) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateImage3D", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newImage(context, flags, format, driver.ImageDesc{
		Type:       driver.MemObjectImage3D,
		Width:      width,
		Height:     height,
		Depth:      depth,
		RowPitch:   rowPitch,
		SlicePitch: slicePitch,
	}, host)
}

func (r *Runtime) CreatePipe(context driver.Ptr, flags driver.MemFlags, packetSize, maxPackets uint32) (driver.Ptr, driver.Status) {
	if st := r.enter("CreatePipe", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.get(driver.KindContext, context); st != driver.Success {
		return 0, st
	}
	if flags&^(driver.MemReadWrite|driver.MemHostNoAccess) != 0 {
		return 0, driver.InvalidValue
	}
	if packetSize == 0 || maxPackets == 0 || packetSize > 1024 {
		return 0, driver.InvalidPipeSize
	}
	return r.alloc(&object{
		kind:       driver.KindMem,
		context:    context,
		memType:    driver.MemObjectPipe,
		flags:      flags | driver.MemReadWrite | driver.MemHostNoAccess,
		data:       make([]byte, int(packetSize)*int(maxPackets)),
		packetSize: packetSize,
		maxPackets: maxPackets,
	}), driver.Success
}

func (r *Runtime) SetMemObjectDestructorCallback(mem driver.Ptr, fn func()) driver.Status {
	if st := r.enter("SetMemObjectDestructorCallback", capability.V11); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, st := r.get(driver.KindMem, mem)
	if st != driver.Success {
		return st
	}
	if fn == nil {
		return driver.InvalidValue
	}
	m.destructors = append(m.destructors, fn)
	return driver.Success
}

func (r *Runtime) newSampler(context driver.Ptr, normalized bool, addressing driver.AddressingMode, filter driver.FilterMode, props []uint64) (driver.Ptr, driver.Status) {
	if _, st := r.get(driver.KindContext, context); st != driver.Success {
		return 0, st
	}
	if _, ok := capability.ConstantName(r.tier, capability.GroupAddressingMode, int64(addressing)); !ok {
		return 0, driver.InvalidValue
	}
	if _, ok := capability.ConstantName(r.tier, capability.GroupFilterMode, int64(filter)); !ok {
		return 0, driver.InvalidValue
	}
	if !normalized && (addressing == driver.AddressRepeat || addressing == driver.AddressMirroredRepeat) {
		return 0, driver.InvalidValue
	}
	return r.alloc(&object{
		kind:         driver.KindSampler,
		context:      context,
		normalized:   normalized,
		addressing:   addressing,
		filter:       filter,
		samplerProps: props,
	}), driver.Success
}

func (r *Runtime) CreateSampler(context driver.Ptr, normalized bool, addressing driver.AddressingMode, filter driver.FilterMode) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateSampler", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newSampler(context, normalized, addressing, filter, nil)
}

func (r *Runtime) CreateSamplerWithProperties(context driver.Ptr, properties []uint64) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateSamplerWithProperties", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized, addressing, filter := true, driver.AddressClamp, driver.FilterNearest
	for i := 0; i < len(properties) && properties[i] != 0; i += 2 {
		if i+1 >= len(properties) {
			return 0, driver.InvalidValue
		}
		v := properties[i+1]
		switch uint32(properties[i]) {
		case driver.SamplerNormalizedCoords:
			normalized = v != 0
		case driver.SamplerAddressingMode:
			addressing = driver.AddressingMode(v)
		case driver.SamplerFilterMode:
			filter = driver.FilterMode(v)
		default:
			return 0, driver.InvalidValue
		}
	}
	return r.newSampler(context, normalized, addressing, filter, append([]uint64(nil), properties...))
}

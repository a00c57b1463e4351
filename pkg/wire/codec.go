package wire

import (
	"fmt"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// EncodeMessagePayload serializes msg into the tag-prefixed binary format
// used for every frame payload, in both directions. The format is
// schema-evolvable the way PackStream is: every variant writes a fixed
// field order for its tag, so a newer peer's additional tags (not
// understood by an older one) never corrupt a shared prefix.
func EncodeMessagePayload(msg *protocol.Message) ([]byte, error) {
	w := newWriter()
	w.u16(uint16(msg.Tag))
	w.u64(uint64(msg.RequestID))

	switch msg.Tag {
	case protocol.MsgTagHello:
		w.str(msg.PeerName)
		w.u32(msg.ProtocolVersion)
		w.optBytes(msg.Challenge)

	case protocol.MsgTagAuthenticate:
		w.str(msg.Token)
		w.bytesField(msg.ChallengeResponse)

	case protocol.MsgTagAuthResult:
		w.bl(msg.Success)
		w.u32(msg.SessionID)
		w.u16(msg.ServerID)
		w.u32(uint32(len(msg.AvailableGpus)))
		for i := range msg.AvailableGpus {
			encodeGpuInfo(w, &msg.AvailableGpus[i])
		}
		w.str(msg.AuthError)

	case protocol.MsgTagQueryGpus, protocol.MsgTagQueryMetrics, protocol.MsgTagPing, protocol.MsgTagPong:
		// no payload

	case protocol.MsgTagGpuList:
		w.u32(uint32(len(msg.Gpus)))
		for i := range msg.Gpus {
			encodeGpuInfo(w, &msg.Gpus[i])
		}

	case protocol.MsgTagCudaCommand:
		if msg.CudaCmd == nil {
			return nil, fmt.Errorf("wire: CudaCommand message missing command")
		}
		encodeCudaCommand(w, msg.CudaCmd)

	case protocol.MsgTagCudaResponse:
		if msg.CudaResp == nil {
			return nil, fmt.Errorf("wire: CudaResponse message missing response")
		}
		encodeCudaResponse(w, msg.CudaResp)

	case protocol.MsgTagVulkanCommand:
		if msg.VulkanCmd == nil {
			return nil, fmt.Errorf("wire: VulkanCommand message missing command")
		}
		encodeVulkanCommand(w, msg.VulkanCmd)

	case protocol.MsgTagVulkanResponse:
		if msg.VulkanResp == nil {
			return nil, fmt.Errorf("wire: VulkanResponse message missing response")
		}
		encodeVulkanResponse(w, msg.VulkanResp)

	case protocol.MsgTagCudaBatch:
		w.u32(uint32(len(msg.Batch)))
		for i := range msg.Batch {
			encodeCudaCommand(w, &msg.Batch[i])
		}

	case protocol.MsgTagMetricsData:
		w.u32(uint32(len(msg.Counters)))
		for k, v := range msg.Counters {
			w.str(k)
			w.u64(v)
		}
		w.u64(msg.UptimeSeconds)
		w.str(msg.ServerIdentity)

	case protocol.MsgTagError:
		if msg.Err == nil {
			return nil, fmt.Errorf("wire: Error message missing error")
		}
		encodeProtocolError(w, msg.Err)

	default:
		return nil, fmt.Errorf("wire: unknown message tag %d", msg.Tag)
	}

	return w.bytes(), nil
}

// DecodeMessagePayload is the inverse of EncodeMessagePayload.
func DecodeMessagePayload(payload []byte) (*protocol.Message, error) {
	r := newReader(payload)
	tag16, err := r.u16()
	if err != nil {
		return nil, err
	}
	reqID, err := r.u64()
	if err != nil {
		return nil, err
	}

	msg := &protocol.Message{Tag: protocol.MessageTag(tag16), RequestID: protocol.RequestID(reqID)}

	switch msg.Tag {
	case protocol.MsgTagHello:
		if msg.PeerName, err = r.str(); err != nil {
			return nil, err
		}
		if msg.ProtocolVersion, err = r.u32(); err != nil {
			return nil, err
		}
		if msg.Challenge, err = r.optBytes(); err != nil {
			return nil, err
		}

	case protocol.MsgTagAuthenticate:
		if msg.Token, err = r.str(); err != nil {
			return nil, err
		}
		if msg.ChallengeResponse, err = r.bytesField(); err != nil {
			return nil, err
		}

	case protocol.MsgTagAuthResult:
		if msg.Success, err = r.bl(); err != nil {
			return nil, err
		}
		if msg.SessionID, err = r.u32(); err != nil {
			return nil, err
		}
		if msg.ServerID, err = r.u16(); err != nil {
			return nil, err
		}
		n, err2 := r.u32()
		if err2 != nil {
			return nil, err2
		}
		msg.AvailableGpus = make([]protocol.GpuInfo, n)
		for i := range msg.AvailableGpus {
			if err := decodeGpuInfo(r, &msg.AvailableGpus[i]); err != nil {
				return nil, err
			}
		}
		if msg.AuthError, err = r.str(); err != nil {
			return nil, err
		}

	case protocol.MsgTagQueryGpus, protocol.MsgTagQueryMetrics, protocol.MsgTagPing, protocol.MsgTagPong:
		// no payload

	case protocol.MsgTagGpuList:
		n, err2 := r.u32()
		if err2 != nil {
			return nil, err2
		}
		msg.Gpus = make([]protocol.GpuInfo, n)
		for i := range msg.Gpus {
			if err := decodeGpuInfo(r, &msg.Gpus[i]); err != nil {
				return nil, err
			}
		}

	case protocol.MsgTagCudaCommand:
		cmd, err := decodeCudaCommand(r)
		if err != nil {
			return nil, err
		}
		msg.CudaCmd = cmd

	case protocol.MsgTagCudaResponse:
		resp, err := decodeCudaResponse(r)
		if err != nil {
			return nil, err
		}
		msg.CudaResp = resp

	case protocol.MsgTagVulkanCommand:
		cmd, err := decodeVulkanCommand(r)
		if err != nil {
			return nil, err
		}
		msg.VulkanCmd = cmd

	case protocol.MsgTagVulkanResponse:
		resp, err := decodeVulkanResponse(r)
		if err != nil {
			return nil, err
		}
		msg.VulkanResp = resp

	case protocol.MsgTagCudaBatch:
		n, err2 := r.u32()
		if err2 != nil {
			return nil, err2
		}
		msg.Batch = make([]protocol.CudaCommand, n)
		for i := range msg.Batch {
			cmd, err := decodeCudaCommand(r)
			if err != nil {
				return nil, err
			}
			msg.Batch[i] = *cmd
		}

	case protocol.MsgTagMetricsData:
		n, err2 := r.u32()
		if err2 != nil {
			return nil, err2
		}
		msg.Counters = make(map[string]uint64, n)
		for i := uint32(0); i < n; i++ {
			k, err := r.str()
			if err != nil {
				return nil, err
			}
			v, err := r.u64()
			if err != nil {
				return nil, err
			}
			msg.Counters[k] = v
		}
		if msg.UptimeSeconds, err = r.u64(); err != nil {
			return nil, err
		}
		if msg.ServerIdentity, err = r.str(); err != nil {
			return nil, err
		}

	case protocol.MsgTagError:
		perr, err := decodeProtocolError(r)
		if err != nil {
			return nil, err
		}
		msg.Err = perr

	default:
		return nil, fmt.Errorf("wire: unknown message tag %d", tag16)
	}

	return msg, nil
}

func encodeHandle(w *writer, h protocol.NetworkHandle) {
	w.u16(h.ServerID)
	w.u32(h.SessionID)
	w.u64(h.ResourceID)
	w.u8(uint8(h.ResourceType))
}

func decodeHandle(r *reader) (protocol.NetworkHandle, error) {
	var h protocol.NetworkHandle
	var err error
	if h.ServerID, err = r.u16(); err != nil {
		return h, err
	}
	if h.SessionID, err = r.u32(); err != nil {
		return h, err
	}
	if h.ResourceID, err = r.u64(); err != nil {
		return h, err
	}
	rt, err := r.u8()
	if err != nil {
		return h, err
	}
	h.ResourceType = protocol.ResourceType(rt)
	return h, nil
}

func encodeGpuInfo(w *writer, g *protocol.GpuInfo) {
	w.str(g.DeviceName)
	w.u32(g.VendorID)
	w.u32(g.DeviceID)
	w.u8(uint8(g.DeviceType))
	w.u64(g.TotalMemory)
	w.bl(g.SupportsVulkan)
	w.bl(g.SupportsCuda)
	w.optU32(g.VulkanAPIVersion)
	w.optU32(g.VulkanDriverVersion)
	if g.CudaComputeCapability != nil {
		w.bl(true)
		w.i32(g.CudaComputeCapability[0])
		w.i32(g.CudaComputeCapability[1])
	} else {
		w.bl(false)
	}
	w.u32(g.QueueFamilyCount)
	w.u32(uint32(len(g.MemoryHeaps)))
	for _, h := range g.MemoryHeaps {
		w.u64(h.Size)
		w.bl(h.IsDeviceLocal)
	}
	w.u32(g.ServerDeviceIndex)
	w.u16(g.ServerID)
}

func decodeGpuInfo(r *reader, g *protocol.GpuInfo) error {
	var err error
	if g.DeviceName, err = r.str(); err != nil {
		return err
	}
	if g.VendorID, err = r.u32(); err != nil {
		return err
	}
	if g.DeviceID, err = r.u32(); err != nil {
		return err
	}
	dt, err := r.u8()
	if err != nil {
		return err
	}
	g.DeviceType = protocol.GpuDeviceType(dt)
	if g.TotalMemory, err = r.u64(); err != nil {
		return err
	}
	if g.SupportsVulkan, err = r.bl(); err != nil {
		return err
	}
	if g.SupportsCuda, err = r.bl(); err != nil {
		return err
	}
	if g.VulkanAPIVersion, err = r.optU32(); err != nil {
		return err
	}
	if g.VulkanDriverVersion, err = r.optU32(); err != nil {
		return err
	}
	hasCC, err := r.bl()
	if err != nil {
		return err
	}
	if hasCC {
		major, err := r.i32()
		if err != nil {
			return err
		}
		minor, err := r.i32()
		if err != nil {
			return err
		}
		g.CudaComputeCapability = &[2]int32{major, minor}
	}
	if g.QueueFamilyCount, err = r.u32(); err != nil {
		return err
	}
	n, err := r.u32()
	if err != nil {
		return err
	}
	g.MemoryHeaps = make([]protocol.MemoryHeapInfo, n)
	for i := range g.MemoryHeaps {
		if g.MemoryHeaps[i].Size, err = r.u64(); err != nil {
			return err
		}
		if g.MemoryHeaps[i].IsDeviceLocal, err = r.bl(); err != nil {
			return err
		}
	}
	if g.ServerDeviceIndex, err = r.u32(); err != nil {
		return err
	}
	if g.ServerID, err = r.u16(); err != nil {
		return err
	}
	return nil
}

func encodeProtocolError(w *writer, e *protocol.ProtocolError) {
	w.u8(uint8(e.Kind))
	w.str(e.Message)
	w.i32(e.GpuCode)
	w.u64(e.Requested)
}

func decodeProtocolError(r *reader) (*protocol.ProtocolError, error) {
	kind, err := r.u8()
	if err != nil {
		return nil, err
	}
	e := &protocol.ProtocolError{Kind: protocol.ErrorKind(kind)}
	if e.Message, err = r.str(); err != nil {
		return nil, err
	}
	if e.GpuCode, err = r.i32(); err != nil {
		return nil, err
	}
	if e.Requested, err = r.u64(); err != nil {
		return nil, err
	}
	return e, nil
}

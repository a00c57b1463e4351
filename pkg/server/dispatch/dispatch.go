package dispatch

import (
	"github.com/rgpu/rgpu/pkg/driver"
	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/session"
)

// cudaAllocatingResponses is the set of CudaResponseTags whose Handle
// field names a freshly-minted resource (as opposed to one merely looked
// up, like CudaRespDevice) -- these are the ones Dispatcher must adopt
// into the issuing session's tracking set.
var cudaAllocatingResponses = map[protocol.CudaResponseTag]bool{
	protocol.CudaRespMemAllocated: true,
	protocol.CudaRespContext:      true,
	protocol.CudaRespModule:       true,
	protocol.CudaRespStream:       true,
	protocol.CudaRespEvent:        true,
	protocol.CudaRespMemPool:      true,
	protocol.CudaRespLinker:       true,
	protocol.CudaRespHostPtr:      true,
}

// Dispatcher routes an authenticated session's commands to the linked
// driver backend, validating every handle the command references against
// that session's allocation set first (invariant: a session may only act
// on handles it allocated).
type Dispatcher struct {
	ServerID uint16
	Cuda     driver.CudaDriver
	Vulkan   driver.VulkanDriver
}

// New builds a Dispatcher over the given driver backends.
func New(serverID uint16, cuda driver.CudaDriver, vulkan driver.VulkanDriver) *Dispatcher {
	return &Dispatcher{ServerID: serverID, Cuda: cuda, Vulkan: vulkan}
}

// DispatchCuda validates cmd's handles against s, executes it on the
// CUDA backend, and registers any handle the response allocates with s
// so a later command from the same session can reference it.
func (d *Dispatcher) DispatchCuda(s *session.Session, cmd *protocol.CudaCommand) (*protocol.CudaResponse, error) {
	if err := validateCudaHandles(s, cmd); err != nil {
		return nil, err
	}
	resp, err := d.Cuda.Execute(cmd)
	if err != nil {
		return nil, err
	}
	if resp != nil && cudaAllocatingResponses[resp.Tag] && !resp.Handle.IsNull() {
		resp.Handle = d.stampAndAdopt(s, resp.Handle)
	}
	return resp, nil
}

// DispatchVulkan validates cmd's handles against s, including the handles
// named inside any recorded command-buffer entries, executes it on the
// Vulkan backend, and registers any handle the response allocates with s.
func (d *Dispatcher) DispatchVulkan(s *session.Session, cmd *protocol.VulkanCommand) (*protocol.VulkanResponse, error) {
	if err := validateVulkanHandles(s, cmd); err != nil {
		return nil, err
	}
	resp, err := d.Vulkan.Execute(cmd)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		if resp.Tag == protocol.VkRespHandle && !resp.Handle.IsNull() {
			resp.Handle = d.stampAndAdopt(s, resp.Handle)
		}
		for i, h := range resp.Handles {
			resp.Handles[i] = d.stampAndAdopt(s, h)
		}
	}
	return resp, nil
}

// stampAndAdopt fills in the ServerID/SessionID fields the driver can't
// know (it mints only a ResourceID within its own resource-type
// namespace) and registers the completed handle with s so
// Session.Teardown will free it on disconnect.
func (d *Dispatcher) stampAndAdopt(s *session.Session, h protocol.NetworkHandle) protocol.NetworkHandle {
	h.ServerID = d.ServerID
	h.SessionID = s.ID
	s.Adopt(h)
	return h
}

// validateCudaHandles checks every non-null NetworkHandle field a command
// tag actually uses against the session's allocation set. Rather than a
// 115-way field-presence switch, it walks the small set of fields the
// wire codec can populate and skips any that are null -- a command that
// doesn't use a given field leaves it at its zero value, which is
// already null.
func validateCudaHandles(s *session.Session, c *protocol.CudaCommand) error {
	candidates := []protocol.NetworkHandle{
		c.Device, c.PeerDevice, c.SrcDevice, c.DstDevice,
		c.Ctx, c.PeerCtx, c.Module, c.Func,
		c.Stream, c.Event, c.EventStart, c.EventEnd,
		c.MemPool, c.Pool, c.Ptr, c.HostPtr,
		c.Dptr, c.Dst, c.Src, c.Link,
	}
	return validateAll(s, candidates)
}

func validateVulkanHandles(s *session.Session, c *protocol.VulkanCommand) error {
	candidates := []protocol.NetworkHandle{
		c.Instance, c.PhysicalDevice, c.Device, c.Queue,
		c.CommandPool, c.CommandBuffer, c.Memory, c.Buffer,
		c.Image, c.ImageView, c.Sampler, c.ShaderModule,
		c.PipelineLayout, c.DescSetLayout, c.DescPool, c.Pipeline,
		c.RenderPass, c.Framebuffer, c.Fence, c.Semaphore,
		c.Event, c.Swapchain,
	}
	candidates = append(candidates, c.DescSets...)
	candidates = append(candidates, c.Fences...)
	for _, rc := range c.Recorded {
		candidates = append(candidates, rc.Pipeline, rc.Layout, rc.IndexBuffer,
			rc.SrcBuffer, rc.DstBuffer, rc.SrcImage, rc.DstImage, rc.RenderPass, rc.Framebuffer)
		candidates = append(candidates, rc.DescriptorSets...)
		candidates = append(candidates, rc.Buffers...)
	}
	return validateAll(s, candidates)
}

func validateAll(s *session.Session, handles []protocol.NetworkHandle) error {
	for _, h := range handles {
		if h.IsNull() {
			continue
		}
		if !s.Validate(h) {
			return protocol.NewInvalidHandle(h.String())
		}
	}
	return nil
}

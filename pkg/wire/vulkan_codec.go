package wire

import (
	"fmt"

	"github.com/rgpu/rgpu/pkg/protocol"
)

func encodeHandles(w *writer, hs []protocol.NetworkHandle) {
	w.u32(uint32(len(hs)))
	for _, h := range hs {
		encodeHandle(w, h)
	}
}

func decodeHandles(r *reader) ([]protocol.NetworkHandle, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]protocol.NetworkHandle, n)
	for i := range out {
		if out[i], err = decodeHandle(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeRecordedCommand(w *writer, rc *protocol.RecordedCommand) {
	w.u16(uint16(rc.Kind))
	switch rc.Kind {
	case protocol.RecBindPipeline:
		encodeHandle(w, rc.Pipeline)
	case protocol.RecBindDescriptorSets:
		encodeHandle(w, rc.Layout)
		encodeHandles(w, rc.DescriptorSets)
	case protocol.RecBindVertexBuffers:
		encodeHandles(w, rc.Buffers)
		w.u64slice(rc.Offsets)
	case protocol.RecBindIndexBuffer:
		encodeHandle(w, rc.IndexBuffer)
		w.u64(rc.IndexOffset)
		w.u32(rc.IndexType)
	case protocol.RecDraw:
		w.u32(rc.VertexCount)
		w.u32(rc.InstanceCount)
		w.u32(rc.FirstVertex)
		w.u32(rc.FirstInstance)
	case protocol.RecDrawIndexed:
		w.u32(rc.IndexCount)
		w.u32(rc.InstanceCount)
		w.i32(rc.FirstIndex)
		w.i32(rc.VertexOffset)
		w.u32(rc.FirstInstance)
	case protocol.RecDispatch:
		w.u32(rc.GroupCountX)
		w.u32(rc.GroupCountY)
		w.u32(rc.GroupCountZ)
	case protocol.RecCopyBuffer, protocol.RecCopyImage,
		protocol.RecCopyBufferToImage, protocol.RecCopyImageToBuffer:
		encodeHandle(w, rc.SrcBuffer)
		encodeHandle(w, rc.DstBuffer)
		encodeHandle(w, rc.SrcImage)
		encodeHandle(w, rc.DstImage)
		w.bytesField(rc.Regions)
	case protocol.RecPipelineBarrier:
		w.u32(rc.SrcStageMask)
		w.u32(rc.DstStageMask)
		w.bytesField(rc.Barriers)
	case protocol.RecPushConstants:
		encodeHandle(w, rc.Layout)
		w.u32(rc.StageFlags)
		w.u32(rc.Offset)
		w.bytesField(rc.Values)
	case protocol.RecSetViewport:
		w.f32(rc.X)
		w.f32(rc.Y)
		w.f32(rc.Width)
		w.f32(rc.Height)
		w.f32(rc.MinDepth)
		w.f32(rc.MaxDepth)
	case protocol.RecSetScissor:
		w.f32(rc.X)
		w.f32(rc.Y)
		w.f32(rc.Width)
		w.f32(rc.Height)
	case protocol.RecBeginRenderPass:
		encodeHandle(w, rc.RenderPass)
		encodeHandle(w, rc.Framebuffer)
		w.bytesField(rc.RenderArea)
		w.bytesField(rc.ClearValues)
	case protocol.RecEndRenderPass, protocol.RecNextSubpass:
		// no fields
	}
}

func decodeRecordedCommand(r *reader) (protocol.RecordedCommand, error) {
	var rc protocol.RecordedCommand
	kind, err := r.u16()
	if err != nil {
		return rc, err
	}
	rc.Kind = protocol.RecordedCommandKind(kind)

	var e error
	switch rc.Kind {
	case protocol.RecBindPipeline:
		rc.Pipeline, e = decodeHandle(r)
	case protocol.RecBindDescriptorSets:
		if rc.Layout, e = decodeHandle(r); e == nil {
			rc.DescriptorSets, e = decodeHandles(r)
		}
	case protocol.RecBindVertexBuffers:
		if rc.Buffers, e = decodeHandles(r); e == nil {
			rc.Offsets, e = r.u64slice()
		}
	case protocol.RecBindIndexBuffer:
		if rc.IndexBuffer, e = decodeHandle(r); e == nil {
			if rc.IndexOffset, e = r.u64(); e == nil {
				rc.IndexType, e = r.u32()
			}
		}
	case protocol.RecDraw:
		if rc.VertexCount, e = r.u32(); e == nil {
			if rc.InstanceCount, e = r.u32(); e == nil {
				if rc.FirstVertex, e = r.u32(); e == nil {
					rc.FirstInstance, e = r.u32()
				}
			}
		}
	case protocol.RecDrawIndexed:
		if rc.IndexCount, e = r.u32(); e == nil {
			if rc.InstanceCount, e = r.u32(); e == nil {
				if rc.FirstIndex, e = r.i32(); e == nil {
					if rc.VertexOffset, e = r.i32(); e == nil {
						rc.FirstInstance, e = r.u32()
					}
				}
			}
		}
	case protocol.RecDispatch:
		if rc.GroupCountX, e = r.u32(); e == nil {
			if rc.GroupCountY, e = r.u32(); e == nil {
				rc.GroupCountZ, e = r.u32()
			}
		}
	case protocol.RecCopyBuffer, protocol.RecCopyImage,
		protocol.RecCopyBufferToImage, protocol.RecCopyImageToBuffer:
		if rc.SrcBuffer, e = decodeHandle(r); e == nil {
			if rc.DstBuffer, e = decodeHandle(r); e == nil {
				if rc.SrcImage, e = decodeHandle(r); e == nil {
					if rc.DstImage, e = decodeHandle(r); e == nil {
						rc.Regions, e = r.bytesField()
					}
				}
			}
		}
	case protocol.RecPipelineBarrier:
		if rc.SrcStageMask, e = r.u32(); e == nil {
			if rc.DstStageMask, e = r.u32(); e == nil {
				rc.Barriers, e = r.bytesField()
			}
		}
	case protocol.RecPushConstants:
		if rc.Layout, e = decodeHandle(r); e == nil {
			if rc.StageFlags, e = r.u32(); e == nil {
				if rc.Offset, e = r.u32(); e == nil {
					rc.Values, e = r.bytesField()
				}
			}
		}
	case protocol.RecSetViewport:
		if rc.X, e = r.f32(); e == nil {
			if rc.Y, e = r.f32(); e == nil {
				if rc.Width, e = r.f32(); e == nil {
					if rc.Height, e = r.f32(); e == nil {
						if rc.MinDepth, e = r.f32(); e == nil {
							rc.MaxDepth, e = r.f32()
						}
					}
				}
			}
		}
	case protocol.RecSetScissor:
		if rc.X, e = r.f32(); e == nil {
			if rc.Y, e = r.f32(); e == nil {
				if rc.Width, e = r.f32(); e == nil {
					rc.Height, e = r.f32()
				}
			}
		}
	case protocol.RecBeginRenderPass:
		if rc.RenderPass, e = decodeHandle(r); e == nil {
			if rc.Framebuffer, e = decodeHandle(r); e == nil {
				if rc.RenderArea, e = r.bytesField(); e == nil {
					rc.ClearValues, e = r.bytesField()
				}
			}
		}
	case protocol.RecEndRenderPass, protocol.RecNextSubpass:
		// no fields
	}
	return rc, e
}

func encodeVulkanCommand(w *writer, c *protocol.VulkanCommand) {
	w.u16(uint16(c.Tag))
	switch c.Tag {
	case protocol.VkTagCreateInstance:
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyInstance:
		encodeHandle(w, c.Instance)
	case protocol.VkTagEnumeratePhysicalDevices,
		protocol.VkTagGetPhysicalDeviceMemoryProperties:
		encodeHandle(w, c.Instance)
	case protocol.VkTagGetPhysicalDeviceProperties,
		protocol.VkTagGetPhysicalDeviceQueueFamilyProperties,
		protocol.VkTagGetPhysicalDeviceFeatures:
		encodeHandle(w, c.PhysicalDevice)
	case protocol.VkTagGetPhysicalDeviceFormatProperties:
		encodeHandle(w, c.PhysicalDevice)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagCreateDevice:
		encodeHandle(w, c.PhysicalDevice)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyDevice, protocol.VkTagDeviceWaitIdle:
		encodeHandle(w, c.Device)
	case protocol.VkTagGetDeviceQueue:
		encodeHandle(w, c.Device)
		w.u32(c.QueueFamilyIndex)
		w.u32(c.Count)
	case protocol.VkTagCreateCommandPool:
		encodeHandle(w, c.Device)
		w.u32(c.QueueFamilyIndex)
	case protocol.VkTagDestroyCommandPool:
		encodeHandle(w, c.CommandPool)
	case protocol.VkTagAllocateCommandBuffers:
		encodeHandle(w, c.CommandPool)
		w.u32(c.Count)
	case protocol.VkTagFreeCommandBuffers:
		encodeHandle(w, c.CommandPool)
		encodeHandle(w, c.CommandBuffer)
	case protocol.VkTagResetCommandBuffer, protocol.VkTagBeginCommandBuffer,
		protocol.VkTagEndCommandBuffer:
		encodeHandle(w, c.CommandBuffer)
	case protocol.VkTagSubmitRecordedCommands:
		encodeHandle(w, c.CommandBuffer)
		w.u32(uint32(len(c.Recorded)))
		for i := range c.Recorded {
			encodeRecordedCommand(w, &c.Recorded[i])
		}
	case protocol.VkTagQueueSubmit:
		encodeHandle(w, c.Queue)
		encodeHandle(w, c.CommandBuffer)
		encodeHandle(w, c.Fence)
	case protocol.VkTagQueueWaitIdle:
		encodeHandle(w, c.Queue)
	case protocol.VkTagAllocateMemory:
		encodeHandle(w, c.Device)
		w.u64(c.AllocationSize)
		w.u32(c.MemoryTypeIndex)
	case protocol.VkTagFreeMemory:
		encodeHandle(w, c.Memory)
	case protocol.VkTagMapMemory:
		encodeHandle(w, c.Memory)
		w.u64(c.Offset)
		w.u64(c.Size)
	case protocol.VkTagUnmapMemory:
		encodeHandle(w, c.Memory)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagFlushMappedMemoryRanges, protocol.VkTagInvalidateMappedMemoryRanges:
		encodeHandle(w, c.Memory)
		w.u64(c.Offset)
		w.u64(c.Size)
	case protocol.VkTagCreateBuffer:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyBuffer:
		encodeHandle(w, c.Buffer)
	case protocol.VkTagBindBufferMemory:
		encodeHandle(w, c.Buffer)
		encodeHandle(w, c.Memory)
		w.u64(c.Offset)
	case protocol.VkTagCreateImage:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyImage:
		encodeHandle(w, c.Image)
	case protocol.VkTagBindImageMemory:
		encodeHandle(w, c.Image)
		encodeHandle(w, c.Memory)
		w.u64(c.Offset)
	case protocol.VkTagCreateImageView:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyImageView:
		encodeHandle(w, c.ImageView)
	case protocol.VkTagCreateSampler:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroySampler:
		encodeHandle(w, c.Sampler)
	case protocol.VkTagCreateShaderModule:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyShaderModule:
		encodeHandle(w, c.ShaderModule)
	case protocol.VkTagCreatePipelineLayout:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyPipelineLayout:
		encodeHandle(w, c.PipelineLayout)
	case protocol.VkTagCreateDescriptorSetLayout:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyDescriptorSetLayout:
		encodeHandle(w, c.DescSetLayout)
	case protocol.VkTagCreateDescriptorPool:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyDescriptorPool:
		encodeHandle(w, c.DescPool)
	case protocol.VkTagAllocateDescriptorSets:
		encodeHandle(w, c.DescPool)
		encodeHandle(w, c.DescSetLayout)
		w.u32(c.Count)
	case protocol.VkTagUpdateDescriptorSets:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagCreateGraphicsPipelines, protocol.VkTagCreateComputePipelines:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyPipeline:
		encodeHandle(w, c.Pipeline)
	case protocol.VkTagCreateRenderPass:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyRenderPass:
		encodeHandle(w, c.RenderPass)
	case protocol.VkTagCreateFramebuffer:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroyFramebuffer:
		encodeHandle(w, c.Framebuffer)
	case protocol.VkTagCreateFence:
		encodeHandle(w, c.Device)
		w.u32(c.QueueFamilyIndex) // flags
	case protocol.VkTagDestroyFence:
		encodeHandle(w, c.Fence)
	case protocol.VkTagWaitForFences:
		encodeHandles(w, c.Fences)
		w.bl(c.WaitAll)
		w.u64(c.TimeoutNs)
	case protocol.VkTagResetFences:
		encodeHandles(w, c.Fences)
	case protocol.VkTagGetFenceStatus:
		encodeHandle(w, c.Fence)
	case protocol.VkTagCreateSemaphore:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroySemaphore:
		encodeHandle(w, c.Semaphore)
	case protocol.VkTagCreateEvent:
		encodeHandle(w, c.Device)
	case protocol.VkTagDestroyEvent, protocol.VkTagSetEvent,
		protocol.VkTagResetEvent, protocol.VkTagGetEventStatus:
		encodeHandle(w, c.Event)
	case protocol.VkTagCreateSwapchain:
		encodeHandle(w, c.Device)
		w.bytesField(c.CreateInfo)
	case protocol.VkTagDestroySwapchain:
		encodeHandle(w, c.Swapchain)
	}
}

func decodeVulkanCommand(r *reader) (*protocol.VulkanCommand, error) {
	tag16, err := r.u16()
	if err != nil {
		return nil, err
	}
	c := &protocol.VulkanCommand{Tag: protocol.VulkanCommandTag(tag16)}
	var e error
	switch c.Tag {
	case protocol.VkTagCreateInstance:
		c.CreateInfo, e = r.bytesField()
	case protocol.VkTagDestroyInstance:
		c.Instance, e = decodeHandle(r)
	case protocol.VkTagEnumeratePhysicalDevices,
		protocol.VkTagGetPhysicalDeviceMemoryProperties:
		c.Instance, e = decodeHandle(r)
	case protocol.VkTagGetPhysicalDeviceProperties,
		protocol.VkTagGetPhysicalDeviceQueueFamilyProperties,
		protocol.VkTagGetPhysicalDeviceFeatures:
		c.PhysicalDevice, e = decodeHandle(r)
	case protocol.VkTagGetPhysicalDeviceFormatProperties:
		if c.PhysicalDevice, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagCreateDevice:
		if c.PhysicalDevice, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyDevice, protocol.VkTagDeviceWaitIdle:
		c.Device, e = decodeHandle(r)
	case protocol.VkTagGetDeviceQueue:
		if c.Device, e = decodeHandle(r); e == nil {
			if c.QueueFamilyIndex, e = r.u32(); e == nil {
				c.Count, e = r.u32()
			}
		}
	case protocol.VkTagCreateCommandPool:
		if c.Device, e = decodeHandle(r); e == nil {
			c.QueueFamilyIndex, e = r.u32()
		}
	case protocol.VkTagDestroyCommandPool:
		c.CommandPool, e = decodeHandle(r)
	case protocol.VkTagAllocateCommandBuffers:
		if c.CommandPool, e = decodeHandle(r); e == nil {
			c.Count, e = r.u32()
		}
	case protocol.VkTagFreeCommandBuffers:
		if c.CommandPool, e = decodeHandle(r); e == nil {
			c.CommandBuffer, e = decodeHandle(r)
		}
	case protocol.VkTagResetCommandBuffer, protocol.VkTagBeginCommandBuffer,
		protocol.VkTagEndCommandBuffer:
		c.CommandBuffer, e = decodeHandle(r)
	case protocol.VkTagSubmitRecordedCommands:
		if c.CommandBuffer, e = decodeHandle(r); e == nil {
			var n uint32
			if n, e = r.u32(); e == nil {
				c.Recorded = make([]protocol.RecordedCommand, n)
				for i := range c.Recorded {
					if c.Recorded[i], e = decodeRecordedCommand(r); e != nil {
						break
					}
				}
			}
		}
	case protocol.VkTagQueueSubmit:
		if c.Queue, e = decodeHandle(r); e == nil {
			if c.CommandBuffer, e = decodeHandle(r); e == nil {
				c.Fence, e = decodeHandle(r)
			}
		}
	case protocol.VkTagQueueWaitIdle:
		c.Queue, e = decodeHandle(r)
	case protocol.VkTagAllocateMemory:
		if c.Device, e = decodeHandle(r); e == nil {
			if c.AllocationSize, e = r.u64(); e == nil {
				c.MemoryTypeIndex, e = r.u32()
			}
		}
	case protocol.VkTagFreeMemory:
		c.Memory, e = decodeHandle(r)
	case protocol.VkTagMapMemory:
		if c.Memory, e = decodeHandle(r); e == nil {
			if c.Offset, e = r.u64(); e == nil {
				c.Size, e = r.u64()
			}
		}
	case protocol.VkTagUnmapMemory:
		if c.Memory, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagFlushMappedMemoryRanges, protocol.VkTagInvalidateMappedMemoryRanges:
		if c.Memory, e = decodeHandle(r); e == nil {
			if c.Offset, e = r.u64(); e == nil {
				c.Size, e = r.u64()
			}
		}
	case protocol.VkTagCreateBuffer:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyBuffer:
		c.Buffer, e = decodeHandle(r)
	case protocol.VkTagBindBufferMemory:
		if c.Buffer, e = decodeHandle(r); e == nil {
			if c.Memory, e = decodeHandle(r); e == nil {
				c.Offset, e = r.u64()
			}
		}
	case protocol.VkTagCreateImage:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyImage:
		c.Image, e = decodeHandle(r)
	case protocol.VkTagBindImageMemory:
		if c.Image, e = decodeHandle(r); e == nil {
			if c.Memory, e = decodeHandle(r); e == nil {
				c.Offset, e = r.u64()
			}
		}
	case protocol.VkTagCreateImageView:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyImageView:
		c.ImageView, e = decodeHandle(r)
	case protocol.VkTagCreateSampler:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroySampler:
		c.Sampler, e = decodeHandle(r)
	case protocol.VkTagCreateShaderModule:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyShaderModule:
		c.ShaderModule, e = decodeHandle(r)
	case protocol.VkTagCreatePipelineLayout:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyPipelineLayout:
		c.PipelineLayout, e = decodeHandle(r)
	case protocol.VkTagCreateDescriptorSetLayout:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyDescriptorSetLayout:
		c.DescSetLayout, e = decodeHandle(r)
	case protocol.VkTagCreateDescriptorPool:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyDescriptorPool:
		c.DescPool, e = decodeHandle(r)
	case protocol.VkTagAllocateDescriptorSets:
		if c.DescPool, e = decodeHandle(r); e == nil {
			if c.DescSetLayout, e = decodeHandle(r); e == nil {
				c.Count, e = r.u32()
			}
		}
	case protocol.VkTagUpdateDescriptorSets:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagCreateGraphicsPipelines, protocol.VkTagCreateComputePipelines:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyPipeline:
		c.Pipeline, e = decodeHandle(r)
	case protocol.VkTagCreateRenderPass:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyRenderPass:
		c.RenderPass, e = decodeHandle(r)
	case protocol.VkTagCreateFramebuffer:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroyFramebuffer:
		c.Framebuffer, e = decodeHandle(r)
	case protocol.VkTagCreateFence:
		if c.Device, e = decodeHandle(r); e == nil {
			c.QueueFamilyIndex, e = r.u32()
		}
	case protocol.VkTagDestroyFence:
		c.Fence, e = decodeHandle(r)
	case protocol.VkTagWaitForFences:
		if c.Fences, e = decodeHandles(r); e == nil {
			if c.WaitAll, e = r.bl(); e == nil {
				c.TimeoutNs, e = r.u64()
			}
		}
	case protocol.VkTagResetFences:
		c.Fences, e = decodeHandles(r)
	case protocol.VkTagGetFenceStatus:
		c.Fence, e = decodeHandle(r)
	case protocol.VkTagCreateSemaphore:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroySemaphore:
		c.Semaphore, e = decodeHandle(r)
	case protocol.VkTagCreateEvent:
		c.Device, e = decodeHandle(r)
	case protocol.VkTagDestroyEvent, protocol.VkTagSetEvent,
		protocol.VkTagResetEvent, protocol.VkTagGetEventStatus:
		c.Event, e = decodeHandle(r)
	case protocol.VkTagCreateSwapchain:
		if c.Device, e = decodeHandle(r); e == nil {
			c.CreateInfo, e = r.bytesField()
		}
	case protocol.VkTagDestroySwapchain:
		c.Swapchain, e = decodeHandle(r)
	default:
		e = fmt.Errorf("wire: unknown vulkan command tag %d", tag16)
	}
	if e != nil {
		return nil, e
	}
	return c, nil
}

func encodeVulkanResponse(w *writer, resp *protocol.VulkanResponse) {
	w.u16(uint16(resp.Tag))
	switch resp.Tag {
	case protocol.VkRespSuccess:
	case protocol.VkRespError:
		w.i32(resp.Code)
		w.str(resp.Message)
	case protocol.VkRespHandle:
		encodeHandle(w, resp.Handle)
	case protocol.VkRespHandles:
		encodeHandles(w, resp.Handles)
	case protocol.VkRespRawBytes:
		w.bytesField(resp.RawBytes)
	case protocol.VkRespBool:
		w.bl(resp.Bool)
	case protocol.VkRespUInt32:
		w.u32(resp.UInt32)
	}
}

func decodeVulkanResponse(r *reader) (*protocol.VulkanResponse, error) {
	tag16, err := r.u16()
	if err != nil {
		return nil, err
	}
	resp := &protocol.VulkanResponse{Tag: protocol.VulkanResponseTag(tag16)}
	var e error
	switch resp.Tag {
	case protocol.VkRespSuccess:
	case protocol.VkRespError:
		if resp.Code, e = r.i32(); e == nil {
			resp.Message, e = r.str()
		}
	case protocol.VkRespHandle:
		resp.Handle, e = decodeHandle(r)
	case protocol.VkRespHandles:
		resp.Handles, e = decodeHandles(r)
	case protocol.VkRespRawBytes:
		resp.RawBytes, e = r.bytesField()
	case protocol.VkRespBool:
		resp.Bool, e = r.bl()
	case protocol.VkRespUInt32:
		resp.UInt32, e = r.u32()
	default:
		e = fmt.Errorf("wire: unknown vulkan response tag %d", tag16)
	}
	if e != nil {
		return nil, e
	}
	return resp, nil
}

package vulkan

import (
	"encoding/binary"
	"math"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// CommandBuffer records rate map work onto a one-time Vulkan command buffer.
type CommandBuffer struct {
	ctx           *ComputeContext
	handle        vk.CommandBuffer
	descriptorSet vk.DescriptorSet
}

// Transition records the image barrier between the writable and the
// consumable state of a rate texture.
func (b *CommandBuffer) Transition(t gpu.Texture, from, to gpu.ResourceState) {
	texture := t.(*Texture)

	fromLayout, fromAccess, fromStage := stateBarrier(from)
	toLayout, toAccess, toStage := stateBarrier(to)
	b.barrier(texture, fromLayout, toLayout, fromAccess, toAccess, fromStage, toStage)
}

func stateBarrier(state gpu.ResourceState) (vk.ImageLayout, vk.AccessFlags, vk.PipelineStageFlags) {
	switch state {
	case gpu.StateUnorderedAccess:
		return vk.ImageLayoutGeneral,
			vk.AccessFlags(vk.AccessShaderWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	case gpu.StateShadingRateSource:
		return imageLayoutShadingRateAttachment,
			vk.AccessFlags(accessShadingRateAttachmentRead),
			vk.PipelineStageFlags(pipelineStageShadingRateAttachment)
	}
	core.LogError("unknown resource state %d, treating as general", state)
	return vk.ImageLayoutGeneral,
		vk.AccessFlags(vk.AccessMemoryReadBit) | vk.AccessFlags(vk.AccessMemoryWriteBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
}

func (b *CommandBuffer) barrier(
	t *Texture,
	oldLayout, newLayout vk.ImageLayout,
	srcAccess, dstAccess vk.AccessFlags,
	srcStage, dstStage vk.PipelineStageFlags,
) {
	imageBarrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               t.handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(b.handle, srcStage, dstStage, 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{imageBarrier})
}

// GenerateRateMap binds the generation pipeline to the texture and records
// one dispatch covering the whole tile grid.
func (b *CommandBuffer) GenerateRateMap(t gpu.Texture, c gpu.RateMapConstants) {
	texture := t.(*Texture)
	logical := b.ctx.device.config.LogicalDevice

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     b.ctx.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{b.ctx.pipeline.descriptorSetLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(logical, &allocateInfo, &sets[0]); res != vk.Success {
		core.LogFatal("failed to allocate rate map descriptor set: %s", VulkanResultString(res))
	}
	b.descriptorSet = sets[0]

	imageInfo := vk.DescriptorImageInfo{
		ImageView:   texture.view,
		ImageLayout: vk.ImageLayoutGeneral,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          b.descriptorSet,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageImage,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(logical, 1, []vk.WriteDescriptorSet{write}, 0, nil)

	constants := packConstants(c)
	vk.CmdBindPipeline(b.handle, vk.PipelineBindPointCompute, b.ctx.pipeline.handle)
	vk.CmdBindDescriptorSets(b.handle, vk.PipelineBindPointCompute, b.ctx.pipeline.layout,
		0, 1, []vk.DescriptorSet{b.descriptorSet}, 0, nil)
	vk.CmdPushConstants(b.handle, b.ctx.pipeline.layout,
		vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, pushConstantsSize, unsafe.Pointer(&constants[0]))

	groupsX := (texture.width + workgroupSize - 1) / workgroupSize
	groupsY := (texture.height + workgroupSize - 1) / workgroupSize
	vk.CmdDispatch(b.handle, groupsX, groupsY, 1)
}

// packConstants lays the dispatch parameters out exactly like the shader's
// push constant block: four floats then three uints.
func packConstants(c gpu.RateMapConstants) []byte {
	buf := make([]byte, pushConstantsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(c.CenterX))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(c.CenterY))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(c.InnerRing))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(c.OuterRing))
	binary.LittleEndian.PutUint32(buf[16:], uint32(c.RateFull))
	binary.LittleEndian.PutUint32(buf[20:], uint32(c.RateMedium))
	binary.LittleEndian.PutUint32(buf[24:], uint32(c.RateLow))
	return buf
}

package vulkan

import (
	"encoding/binary"
	"fmt"
	"os"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fovea/injector/core"
)

// sliceUint32 reinterprets little-endian SPIR-V bytes as words.
func sliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}

// pushConstantsSize covers the four float32 ring parameters and the three
// uint32 rates of the generation shader's push constant block.
const pushConstantsSize uint32 = 28

// generatePipeline is the compute pipeline running foveate.comp.
type generatePipeline struct {
	shaderModule        vk.ShaderModule
	descriptorSetLayout vk.DescriptorSetLayout
	layout              vk.PipelineLayout
	handle              vk.Pipeline
}

func newGeneratePipeline(d *Device) (*generatePipeline, error) {
	code, err := os.ReadFile(d.config.ShaderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation shader %s: %w", d.config.ShaderPath, err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("shader %s is not valid SPIR-V", d.config.ShaderPath)
	}

	logical := d.config.LogicalDevice
	p := &generatePipeline{}

	shaderCreateInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    sliceUint32(code),
	}
	if res := vk.CreateShaderModule(logical, &shaderCreateInfo, d.config.Allocator, &p.shaderModule); res != vk.Success {
		return nil, fmt.Errorf("failed to create shader module: %s", VulkanResultString(res))
	}

	layoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeStorageImage,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageComputeBit),
	}
	setLayoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{layoutBinding},
	}
	if res := vk.CreateDescriptorSetLayout(logical, &setLayoutCreateInfo, d.config.Allocator, &p.descriptorSetLayout); res != vk.Success {
		p.destroy(d)
		return nil, fmt.Errorf("failed to create descriptor set layout: %s", VulkanResultString(res))
	}

	pushConstantRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		Offset:     0,
		Size:       pushConstantsSize,
	}
	layoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{p.descriptorSetLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushConstantRange},
	}
	if res := vk.CreatePipelineLayout(logical, &layoutCreateInfo, d.config.Allocator, &p.layout); res != vk.Success {
		p.destroy(d)
		return nil, fmt.Errorf("failed to create pipeline layout: %s", VulkanResultString(res))
	}

	pipelineCreateInfo := vk.ComputePipelineCreateInfo{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: p.shaderModule,
			PName:  "main",
		},
		Layout:             p.layout,
		BasePipelineHandle: vk.NullPipeline,
		BasePipelineIndex:  -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateComputePipelines(logical, vk.NullPipelineCache, 1, []vk.ComputePipelineCreateInfo{pipelineCreateInfo}, d.config.Allocator, pipelines); res != vk.Success {
		p.destroy(d)
		return nil, fmt.Errorf("failed to create compute pipeline: %s", VulkanResultString(res))
	}
	p.handle = pipelines[0]

	core.LogInfo("rate map generation pipeline ready (%s)", d.config.ShaderPath)
	return p, nil
}

func (p *generatePipeline) destroy(d *Device) {
	logical := d.config.LogicalDevice
	if p.handle != vk.NullPipeline {
		vk.DestroyPipeline(logical, p.handle, d.config.Allocator)
		p.handle = vk.NullPipeline
	}
	if p.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(logical, p.layout, d.config.Allocator)
		p.layout = vk.NullPipelineLayout
	}
	if p.descriptorSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(logical, p.descriptorSetLayout, d.config.Allocator)
		p.descriptorSetLayout = vk.NullDescriptorSetLayout
	}
	if p.shaderModule != vk.NullShaderModule {
		vk.DestroyShaderModule(logical, p.shaderModule, d.config.Allocator)
		p.shaderModule = vk.NullShaderModule
	}
}

/*
Package vulkan adapts an existing Vulkan device to the gpu interfaces. The
host owns instance and device creation; this package only borrows the
handles the hooking layer extracted and runs the rate map generation on a
compute queue of its own.
*/
package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// DeviceConfig carries the host-owned handles the adapter builds on.
type DeviceConfig struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	// ComputeQueue must belong to ComputeQueueFamily and must not be the
	// queue the host renders on.
	ComputeQueue       vk.Queue
	ComputeQueueFamily uint32
	// ShaderPath points at the compiled foveate.comp.spv.
	ShaderPath string
	Allocator  *vk.AllocationCallbacks
}

type Device struct {
	config  DeviceConfig
	caps    gpu.Caps
	compute *ComputeContext
}

func NewDevice(config DeviceConfig) (*Device, error) {
	if config.PhysicalDevice == nil || config.LogicalDevice == nil {
		return nil, fmt.Errorf("%w: vulkan adapter needs physical and logical device handles", core.ErrInvalidHandle)
	}
	d := &Device{
		config: config,
		caps:   detectCaps(config.PhysicalDevice),
	}
	if !d.caps.ShadingRateSupported {
		core.LogWarn("device does not expose %s", shadingRateExtensionName)
		return d, nil
	}

	compute, err := newComputeContext(d)
	if err != nil {
		return nil, err
	}
	d.compute = compute
	return d, nil
}

func (d *Device) Caps() gpu.Caps {
	return d.caps
}

func (d *Device) Compute() gpu.ComputeContext {
	return d.compute
}

func (d *Device) Destroy() {
	if d.compute != nil {
		d.compute.destroy()
		d.compute = nil
	}
}

func detectCaps(physical vk.PhysicalDevice) gpu.Caps {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(physical, "", &count, nil); res != vk.Success {
		core.LogError("failed to count device extensions: %s", VulkanResultString(res))
		return gpu.Caps{}
	}
	extensions := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(physical, "", &count, extensions); res != vk.Success {
		core.LogError("failed to enumerate device extensions: %s", VulkanResultString(res))
		return gpu.Caps{}
	}
	for _, ext := range extensions {
		ext.Deref()
		if vk.ToString(ext.ExtensionName[:]) == shadingRateExtensionName {
			return gpu.Caps{
				ShadingRateSupported: true,
				TileSize:             shadingRateTileSize,
			}
		}
	}
	return gpu.Caps{}
}

// CreateRateTexture allocates an R8_UINT storage image usable as a fragment
// shading rate attachment and moves it to the general layout so the first
// dispatch can write it without a prior transition.
func (d *Device) CreateRateTexture(width, height uint32) (gpu.Texture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("rate texture needs non-zero extent, got %dx%d", width, height)
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.FormatR8Uint,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage: vk.ImageUsageFlags(vk.ImageUsageStorageBit) |
			vk.ImageUsageFlags(imageUsageShadingRateAttachment),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if res := vk.CreateImage(d.config.LogicalDevice, &imageCreateInfo, d.config.Allocator, &image); res != vk.Success {
		return nil, fmt.Errorf("failed to create rate image: %s", VulkanResultString(res))
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.config.LogicalDevice, image, &requirements)
	requirements.Deref()

	memoryType, err := d.findMemoryType(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(d.config.LogicalDevice, image, d.config.Allocator)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.config.LogicalDevice, &allocateInfo, d.config.Allocator, &memory); res != vk.Success {
		vk.DestroyImage(d.config.LogicalDevice, image, d.config.Allocator)
		return nil, fmt.Errorf("failed to allocate rate image memory: %s", VulkanResultString(res))
	}
	if res := vk.BindImageMemory(d.config.LogicalDevice, image, memory, 0); res != vk.Success {
		vk.FreeMemory(d.config.LogicalDevice, memory, d.config.Allocator)
		vk.DestroyImage(d.config.LogicalDevice, image, d.config.Allocator)
		return nil, fmt.Errorf("failed to bind rate image memory: %s", VulkanResultString(res))
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   vk.FormatR8Uint,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(d.config.LogicalDevice, &viewCreateInfo, d.config.Allocator, &view); res != vk.Success {
		vk.FreeMemory(d.config.LogicalDevice, memory, d.config.Allocator)
		vk.DestroyImage(d.config.LogicalDevice, image, d.config.Allocator)
		return nil, fmt.Errorf("failed to create rate image view: %s", VulkanResultString(res))
	}

	texture := &Texture{
		device: d,
		handle: image,
		memory: memory,
		view:   view,
		width:  width,
		height: height,
	}
	if err := d.compute.prepareTexture(texture); err != nil {
		texture.Release()
		return nil, err
	}
	core.LogDebug("created %dx%d R8_UINT rate image", width, height)
	return texture, nil
}

func (d *Device) findMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.config.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryType := memoryProperties.MemoryTypes[i]
		memoryType.Deref()
		if typeBits&(1<<i) == 0 {
			continue
		}
		if memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no device-local memory type matches bits 0x%x", typeBits)
}

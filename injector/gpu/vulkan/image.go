package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Texture is one R8_UINT rate image with its backing memory and storage view.
type Texture struct {
	device *Device
	handle vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
	width  uint32
	height uint32
}

func (t *Texture) Width() uint32 {
	return t.width
}

func (t *Texture) Height() uint32 {
	return t.height
}

func (t *Texture) Release() {
	logical := t.device.config.LogicalDevice
	allocator := t.device.config.Allocator
	if t.view != vk.NullImageView {
		vk.DestroyImageView(logical, t.view, allocator)
		t.view = vk.NullImageView
	}
	if t.handle != vk.NullImage {
		vk.DestroyImage(logical, t.handle, allocator)
		t.handle = vk.NullImage
	}
	if t.memory != vk.NullDeviceMemory {
		vk.FreeMemory(logical, t.memory, allocator)
		t.memory = vk.NullDeviceMemory
	}
}

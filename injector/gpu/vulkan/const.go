package vulkan

import (
	vk "github.com/goki/vulkan"
)

// VK_KHR_fragment_shading_rate values not surfaced by the loader bindings.
// Numeric values are from the registry; the names in the comments are the
// spec names.
const (
	// VK_IMAGE_USAGE_FRAGMENT_SHADING_RATE_ATTACHMENT_BIT_KHR
	imageUsageShadingRateAttachment vk.ImageUsageFlagBits = 0x00000100
	// VK_IMAGE_LAYOUT_FRAGMENT_SHADING_RATE_ATTACHMENT_OPTIMAL_KHR
	imageLayoutShadingRateAttachment vk.ImageLayout = 1000164003
	// VK_ACCESS_FRAGMENT_SHADING_RATE_ATTACHMENT_READ_BIT_KHR
	accessShadingRateAttachmentRead vk.AccessFlagBits = 0x00800000
	// VK_PIPELINE_STAGE_FRAGMENT_SHADING_RATE_ATTACHMENT_BIT_KHR
	pipelineStageShadingRateAttachment vk.PipelineStageFlagBits = 0x00400000
)

// shadingRateExtensionName is VK_KHR_FRAGMENT_SHADING_RATE_EXTENSION_NAME.
const shadingRateExtensionName = "VK_KHR_fragment_shading_rate"

// shadingRateTileSize is the texel size of one rate map tile in pixels.
// Both desktop vendors report 16 for the attachment texel size; reading the
// real value needs VkPhysicalDeviceFragmentShadingRatePropertiesKHR through
// GetPhysicalDeviceProperties2, which the loader bindings do not plumb.
const shadingRateTileSize uint32 = 16

// dispatch group edge of the generation shader, must match foveate.comp.
const workgroupSize uint32 = 8

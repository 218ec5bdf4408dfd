package tagframe

import "strconv"

// BufferType identifies the semantic content of a tagged resource.
type BufferType uint32

// Buffer types understood by the host.
const (
	BufferTypeDepth BufferType = iota
	BufferTypeMotionVectors
	BufferTypeHUDLessColor
	BufferTypeScalingInputColor
	BufferTypeScalingOutputColor
	BufferTypeNormalRoughness
	BufferTypeAlbedo
	BufferTypeSpecularAlbedo
	BufferTypeIndirectAlbedo
	BufferTypeSpecularMotionVectors
	BufferTypeDisocclusionMask
	BufferTypeEmissive
	BufferTypeExposure
	BufferTypeNormals
	BufferTypeRoughness
	BufferTypeDiffuseHitNoisy
	BufferTypeDiffuseHitDenoised
	BufferTypeSpecularHitNoisy
	BufferTypeSpecularHitDenoised
	BufferTypeShadowNoisy
	BufferTypeShadowDenoised
	BufferTypeAmbientOcclusionNoisy
	BufferTypeAmbientOcclusionDenoised
	BufferTypeUIColorAndAlpha
	BufferTypeShadowHint
	BufferTypeReflectionHint
	BufferTypeParticleHint
	BufferTypeTransparencyHint
	BufferTypeAnimatedTextureHint
	BufferTypeBiasCurrentColorHint
	BufferTypeRaytracingDistance
	BufferTypeReflectionMotionVectors
	BufferTypePosition
	BufferTypeInvalidDepthMotionHint
	BufferTypeAlpha
	BufferTypeOpaqueColor
	BufferTypeReactiveMaskHint
	BufferTypeTransparencyAndCompositionMaskHint
	BufferTypeReflectedAlbedo
	BufferTypeColorBeforeParticles
	BufferTypeColorBeforeTransparency
	BufferTypeColorBeforeFog
	BufferTypeSpecularHitDistance
	BufferTypeSpecularRayDirectionHitDistance
	BufferTypeSpecularRayDirection
	BufferTypeDiffuseHitDistance
	BufferTypeDiffuseRayDirectionHitDistance
	BufferTypeDiffuseRayDirection
	BufferTypeHiResDepth
	BufferTypeLinearDepth
	BufferTypeBidirectionalDistortionField
	BufferTypeTransparencyLayer
	BufferTypeTransparencyLayerOpacity
	BufferTypeBackbuffer

	bufferTypeCount
)

var bufferTypeNames = [bufferTypeCount]string{
	BufferTypeDepth:                              "Depth",
	BufferTypeMotionVectors:                      "MotionVectors",
	BufferTypeHUDLessColor:                       "HUDLessColor",
	BufferTypeScalingInputColor:                  "ScalingInputColor",
	BufferTypeScalingOutputColor:                 "ScalingOutputColor",
	BufferTypeNormalRoughness:                    "NormalRoughness",
	BufferTypeAlbedo:                             "Albedo",
	BufferTypeSpecularAlbedo:                     "SpecularAlbedo",
	BufferTypeIndirectAlbedo:                     "IndirectAlbedo",
	BufferTypeSpecularMotionVectors:              "SpecularMotionVectors",
	BufferTypeDisocclusionMask:                   "DisocclusionMask",
	BufferTypeEmissive:                           "Emissive",
	BufferTypeExposure:                           "Exposure",
	BufferTypeNormals:                            "Normals",
	BufferTypeRoughness:                          "Roughness",
	BufferTypeDiffuseHitNoisy:                    "DiffuseHitNoisy",
	BufferTypeDiffuseHitDenoised:                 "DiffuseHitDenoised",
	BufferTypeSpecularHitNoisy:                   "SpecularHitNoisy",
	BufferTypeSpecularHitDenoised:                "SpecularHitDenoised",
	BufferTypeShadowNoisy:                        "ShadowNoisy",
	BufferTypeShadowDenoised:                     "ShadowDenoised",
	BufferTypeAmbientOcclusionNoisy:              "AmbientOcclusionNoisy",
	BufferTypeAmbientOcclusionDenoised:           "AmbientOcclusionDenoised",
	BufferTypeUIColorAndAlpha:                    "UIColorAndAlpha",
	BufferTypeShadowHint:                         "ShadowHint",
	BufferTypeReflectionHint:                     "ReflectionHint",
	BufferTypeParticleHint:                       "ParticleHint",
	BufferTypeTransparencyHint:                   "TransparencyHint",
	BufferTypeAnimatedTextureHint:                "AnimatedTextureHint",
	BufferTypeBiasCurrentColorHint:               "BiasCurrentColorHint",
	BufferTypeRaytracingDistance:                 "RaytracingDistance",
	BufferTypeReflectionMotionVectors:            "ReflectionMotionVectors",
	BufferTypePosition:                           "Position",
	BufferTypeInvalidDepthMotionHint:             "InvalidDepthMotionHint",
	BufferTypeAlpha:                              "Alpha",
	BufferTypeOpaqueColor:                        "OpaqueColor",
	BufferTypeReactiveMaskHint:                   "ReactiveMaskHint",
	BufferTypeTransparencyAndCompositionMaskHint: "TransparencyAndCompositionMaskHint",
	BufferTypeReflectedAlbedo:                    "ReflectedAlbedo",
	BufferTypeColorBeforeParticles:               "ColorBeforeParticles",
	BufferTypeColorBeforeTransparency:            "ColorBeforeTransparency",
	BufferTypeColorBeforeFog:                     "ColorBeforeFog",
	BufferTypeSpecularHitDistance:                "SpecularHitDistance",
	BufferTypeSpecularRayDirectionHitDistance:    "SpecularRayDirectionHitDistance",
	BufferTypeSpecularRayDirection:               "SpecularRayDirection",
	BufferTypeDiffuseHitDistance:                 "DiffuseHitDistance",
	BufferTypeDiffuseRayDirectionHitDistance:     "DiffuseRayDirectionHitDistance",
	BufferTypeDiffuseRayDirection:                "DiffuseRayDirection",
	BufferTypeHiResDepth:                         "HiResDepth",
	BufferTypeLinearDepth:                        "LinearDepth",
	BufferTypeBidirectionalDistortionField:       "BidirectionalDistortionField",
	BufferTypeTransparencyLayer:                  "TransparencyLayer",
	BufferTypeTransparencyLayerOpacity:           "TransparencyLayerOpacity",
	BufferTypeBackbuffer:                         "Backbuffer",
}

// String returns the buffer type name.
func (t BufferType) String() string {
	if t < bufferTypeCount {
		return bufferTypeNames[t]
	}
	return "BufferType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// ParseBufferType returns the buffer type with the given name.
func ParseBufferType(name string) (BufferType, bool) {
	for i, n := range bufferTypeNames {
		if n == name {
			return BufferType(i), true
		}
	}
	return 0, false
}

// IsWriteTarget reports whether plugins write their output into resources of
// this type. Write targets are always tagged in place and never copied.
func (t BufferType) IsWriteTarget() bool {
	switch t {
	case BufferTypeScalingOutputColor,
		BufferTypeAmbientOcclusionDenoised,
		BufferTypeShadowDenoised,
		BufferTypeSpecularHitDenoised,
		BufferTypeDiffuseHitDenoised,
		BufferTypeBackbuffer:
		return true
	}
	return false
}

// UID returns the key of a tag within one frame: the buffer type in the high
// 32 bits and the viewport id in the low 32 bits.
func UID(t BufferType, id uint32) uint64 {
	return uint64(t)<<32 | uint64(id)
}

// ResourceLifecycle tells the host how long a tagged resource stays valid.
type ResourceLifecycle uint32

const (
	// OnlyValidNow means the resource may change or be released right after
	// it is tagged.
	OnlyValidNow ResourceLifecycle = iota

	// ValidUntilPresent means the resource stays valid until the frame is
	// presented.
	ValidUntilPresent

	// ValidUntilEvaluate means the resource stays valid until the plugin's
	// evaluate call for the frame.
	ValidUntilEvaluate
)

// String returns the lifecycle name.
func (l ResourceLifecycle) String() string {
	switch l {
	case OnlyValidNow:
		return "OnlyValidNow"
	case ValidUntilPresent:
		return "ValidUntilPresent"
	case ValidUntilEvaluate:
		return "ValidUntilEvaluate"
	}
	return "ResourceLifecycle(" + strconv.FormatUint(uint64(l), 10) + ")"
}

// ParseLifecycle returns the lifecycle with the given name.
func ParseLifecycle(name string) (ResourceLifecycle, bool) {
	for _, l := range []ResourceLifecycle{OnlyValidNow, ValidUntilPresent, ValidUntilEvaluate} {
		if l.String() == name {
			return l, true
		}
	}
	return 0, false
}

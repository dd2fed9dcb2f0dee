package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSize is the byte size of GPUCameraUniform (80 bytes, WGSL aligned).
const GPUCameraUniformSize = 80

// GPUCameraUniform is the GPU-aligned camera uniform written once per device per frame by
// the scene's render parameters. Matches the WGSL layout:
//
//	struct CameraUniform {
//	    view_proj: mat4x4<f32>,
//	    position: vec3<f32>,
//	}
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset  0: combined view-projection matrix (mat4x4<f32>)
	CameraPosition [3]float32  // offset 64: world-space camera position (vec3<f32>)
	_pad           float32     // offset 76: padding to 80 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into little-endian bytes suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, GPUCameraUniformSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	return buf
}

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// compileShader compiles WGSL into a ShaderModule, caching by name.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates one with
// an auto layout.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()
	return pipeline
}

// createStorageBuffer uploads data into a storage buffer.
func (b *Backend) createStorageBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer uploads data into a uniform buffer, padded to the
// required 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	alignedSize := (uint64(len(data)) + 15) &^ 15
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, alignedSize)), alignedSize)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a storage buffer back to CPU memory through a staging
// buffer, since storage buffers cannot be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	result := make([]byte, size)
	copy(result, mapped)
	staging.Unmap()
	return result, nil
}

// dispatch runs one compute pass over the given bind group.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y uint32) {
	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))
}

// runElementwise executes a same-shape binary operation on the GPU.
func (b *Backend) runElementwise(name, code string, a, other *tensor.RawTensor) *tensor.RawTensor {
	n := a.NumElements()
	size := uint64(a.ByteSize())

	pipeline := b.getOrCreatePipeline(name, b.compileShader(name, code))

	bufA := b.createStorageBuffer(a.Data()[:size])
	defer bufA.Release()
	bufOther := b.createStorageBuffer(other.Data()[:size])
	defer bufOther.Release()
	bufResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer bufResult.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufA, 0, size),
		wgpu.BufferBindingEntry(1, bufOther, 0, size),
		wgpu.BufferBindingEntry(2, bufResult, 0, size),
		wgpu.BufferBindingEntry(3, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, uint32((n+workgroupSize-1)/workgroupSize), 1)
	return b.buildResult(bufResult, a.Shape(), size)
}

// runUnary executes a single-input operation on the GPU. scalar, when
// present, is passed through the uniform block after the element count.
func (b *Backend) runUnary(name, code string, x *tensor.RawTensor, scalar ...float32) *tensor.RawTensor {
	n := x.NumElements()
	size := uint64(x.ByteSize())

	pipeline := b.getOrCreatePipeline(name, b.compileShader(name, code))

	bufX := b.createStorageBuffer(x.Data()[:size])
	defer bufX.Release()
	bufResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer bufResult.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	if len(scalar) > 0 {
		binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar[0]))
	}
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufX, 0, size),
		wgpu.BufferBindingEntry(1, bufResult, 0, size),
		wgpu.BufferBindingEntry(2, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, uint32((n+workgroupSize-1)/workgroupSize), 1)
	return b.buildResult(bufResult, x.Shape(), size)
}

// runMatMul executes C = A B on the GPU for 2-D float32 operands.
func (b *Backend) runMatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	m, k, n := a.Shape()[0], a.Shape()[1], other.Shape()[1]
	outShape := tensor.Shape{m, n}
	outSize := uint64(m * n * 4)

	pipeline := b.getOrCreatePipeline("matmul", b.compileShader("matmul", matmulShader))

	bufA := b.createStorageBuffer(a.Data()[:a.ByteSize()])
	defer bufA.Release()
	bufOther := b.createStorageBuffer(other.Data()[:other.ByteSize()])
	defer bufOther.Release()
	bufResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  outSize,
	})
	defer bufResult.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))
	binary.LittleEndian.PutUint32(params[8:12], uint32(n))
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufA, 0, uint64(a.ByteSize())),
		wgpu.BufferBindingEntry(1, bufOther, 0, uint64(other.ByteSize())),
		wgpu.BufferBindingEntry(2, bufResult, 0, outSize),
		wgpu.BufferBindingEntry(3, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	// 16x16 workgroups tile the output matrix.
	b.dispatch(pipeline, bindGroup, uint32((n+15)/16), uint32((m+15)/16))
	return b.buildResult(bufResult, outShape, outSize)
}

// buildResult reads a result buffer back into a new RawTensor.
func (b *Backend) buildResult(buf *wgpu.Buffer, shape tensor.Shape, size uint64) *tensor.RawTensor {
	data, err := b.readBuffer(buf, size)
	if err != nil {
		panic(fmt.Sprintf("webgpu: readback failed: %v", err))
	}
	result, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("webgpu: failed to allocate result: %v", err))
	}
	copy(result.Data(), data)
	return result
}

// Package framebuffer provides OpenGL framebuffer utilities for offscreen rendering.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Framebuffer manages an offscreen render target. Drawing goes to a
// multisampled color+depth target that is resolved into a single-sample
// color texture before read-back.
type Framebuffer struct {
	msFBO      uint32
	msColorRBO uint32
	msDepthRBO uint32

	resolveFBO   uint32
	colorTexture uint32

	width   int32
	height  int32
	samples int32
}

// New creates a new framebuffer with the specified dimensions and sample count.
// The sample count is clamped to what the driver supports.
func New(width, height, samples int32) (*Framebuffer, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	var maxSamples int32
	gl.GetIntegerv(gl.MAX_SAMPLES, &maxSamples)
	samples = min(max(samples, 1), max(maxSamples, 1))

	fb := &Framebuffer{
		width:   width,
		height:  height,
		samples: samples,
	}

	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	return fb, nil
}

func (fb *Framebuffer) create() error {
	// Multisampled draw target
	gl.GenFramebuffers(1, &fb.msFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.msFBO)

	gl.GenRenderbuffers(1, &fb.msColorRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.msColorRBO)
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, fb.samples, gl.RGBA8, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, fb.msColorRBO)

	gl.GenRenderbuffers(1, &fb.msDepthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.msDepthRBO)
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, fb.samples, gl.DEPTH_COMPONENT24, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.msDepthRBO)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("multisample framebuffer incomplete: 0x%x", status)
	}

	// Single-sample resolve target
	gl.GenFramebuffers(1, &fb.resolveFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.resolveFBO)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, fb.width, fb.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("resolve framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Bind makes the multisampled target current and sets the viewport.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.msFBO)
	gl.Viewport(0, 0, fb.width, fb.height)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Clear clears color and depth buffers with the specified color.
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// Samples returns the effective sample count.
func (fb *Framebuffer) Samples() int32 {
	return fb.samples
}

// ReadPixels resolves the multisampled image and reads it into a byte slice.
// Rows are bottom-up as OpenGL stores them.
func (fb *Framebuffer) ReadPixels() []byte {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.msFBO)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, fb.resolveFBO)
	gl.BlitFramebuffer(0, 0, fb.width, fb.height, 0, 0, fb.width, fb.height, gl.COLOR_BUFFER_BIT, gl.NEAREST)

	pixels := make([]byte, fb.width*fb.height*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.resolveFBO)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, fb.width, fb.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return pixels
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.msFBO != 0 {
		gl.DeleteFramebuffers(1, &fb.msFBO)
		fb.msFBO = 0
	}
	if fb.msColorRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.msColorRBO)
		fb.msColorRBO = 0
	}
	if fb.msDepthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.msDepthRBO)
		fb.msDepthRBO = 0
	}
	if fb.resolveFBO != 0 {
		gl.DeleteFramebuffers(1, &fb.resolveFBO)
		fb.resolveFBO = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
}

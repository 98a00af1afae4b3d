//go:build nocgo
// +build nocgo

package audio

import (
	"io"

	"github.com/francktshibala/bookbridge-sync/readaloud"
)

// OtoContext is unavailable without cgo.
type OtoContext struct{}

// NewOtoContext always fails in nocgo builds; callers fall back to the
// mock context.
func NewOtoContext() (*OtoContext, error) {
	return nil, readaloud.ErrOutputUnavailable
}

func (c *OtoContext) NewHandle(io.Reader) (OutputHandle, error) {
	return nil, readaloud.ErrOutputUnavailable
}

func (c *OtoContext) Close() error      { return nil }
func (c *OtoContext) IsReady() bool     { return false }
func (c *OtoContext) SampleRate() int   { return 0 }
func (c *OtoContext) ChannelCount() int { return 0 }

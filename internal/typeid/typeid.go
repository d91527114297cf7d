package typeid

import (
	"go.jetify.com/typeid/v2"
)

const (
	PrefixScene   = "scene"
	PrefixCall    = "call"
	PrefixRequest = "req"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewSceneID() string   { return New(PrefixScene) }
func NewCallID() string    { return New(PrefixCall) }
func NewRequestID() string { return New(PrefixRequest) }

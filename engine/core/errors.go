package core

import (
	"errors"
)

var (
	ErrScriptNotFound     = errors.New("script not found")
	ErrCommandExists      = errors.New("command already registered")
	ErrScriptDepth        = errors.New("script nesting too deep")
	ErrInvalidMaterial    = errors.New("invalid material")
	ErrMaterialNotFound   = errors.New("material not found")
	ErrUnknownAssetType   = errors.New("unknown asset type")
	ErrAssetManagerClosed = errors.New("asset manager already closed")
)

package encoding

import "errors"

// ErrEncoderConfig reports an artifact the encoder cannot be built from.
var ErrEncoderConfig = errors.New("invalid encoder configuration")

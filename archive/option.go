package archive

import (
	"os"

	"go.uber.org/zap"
)

type options struct {
	logger   *zap.Logger
	dirPerm  os.FileMode
	filePerm os.FileMode
}

var defaultOptions = options{
	logger:   zap.NewNop(),
	dirPerm:  0o755,
	filePerm: 0o644,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithPerm(dir, file os.FileMode) Option {
	return func(opts *options) {
		opts.dirPerm = dir
		opts.filePerm = file
	}
}

package wav

import (
	"context"

	"github.com/koscakluka/ema-toolpanel/core/audio"
)

// Load resolves source and decodes it.
func Load(ctx context.Context, resolver *audio.Resolver, source string) (audio.Clip, error) {
	if resolver == nil {
		resolver = &audio.Resolver{}
	}

	path, cleanup, err := resolver.Resolve(ctx, source)
	defer cleanup()
	if err != nil {
		return audio.Clip{}, err
	}

	return LoadFile(path)
}

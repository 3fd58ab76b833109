package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phylotangle/phylotangle/pkg/cache"
	"github.com/phylotangle/phylotangle/pkg/config"
	"github.com/phylotangle/phylotangle/pkg/newick"
	"github.com/phylotangle/phylotangle/pkg/store"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// readNewick reads Newick text from path, or from stdin when path is "-".
func readNewick(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// loadTree reads and parses a Newick tree from path (or stdin for "-").
// Inputs prefixed with "store:" are resolved against the tree store instead.
func loadTree(ctx context.Context, path string) (*tree.Node, string, error) {
	var text string
	if name, ok := strings.CutPrefix(path, "store:"); ok {
		st, err := storeFromConfig(ctx, configFromContext(ctx))
		if err != nil {
			return nil, "", err
		}
		defer st.Close(ctx)

		entry, err := st.Get(ctx, name)
		if err != nil {
			return nil, "", fmt.Errorf("load %q from store: %w", name, err)
		}
		text = entry.Newick
	} else {
		var err error
		text, err = readNewick(path)
		if err != nil {
			return nil, "", err
		}
	}

	root, err := newick.Decode(text)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", path, err)
	}
	return root, text, nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// cacheDir returns the layout cache directory, honoring the configured
// override and falling back to XDG conventions.
func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return cacheHome + "/phylotangle", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home + "/.cache/phylotangle", nil
}

// cacheFromConfig constructs the configured cache backend.
func cacheFromConfig(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
	case config.CacheFile, "":
		dir, err := cacheDir(cfg)
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

// storeFromConfig constructs the configured tree store backend.
func storeFromConfig(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
	case config.StoreFile, "":
		return store.NewFileStore(cfg.Store.Dir)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

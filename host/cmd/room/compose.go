package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mokiat/gog/opt"
	"github.com/mokiat/lacking/util/resource"

	"github.com/nobonobo/folio-room/host/asset"
	"github.com/nobonobo/folio-room/host/config"
	"github.com/nobonobo/folio-room/host/graph"
	"github.com/nobonobo/folio-room/host/loop"
	"github.com/nobonobo/folio-room/host/material"
	"github.com/nobonobo/folio-room/host/resources"
	"github.com/nobonobo/folio-room/host/room"
	"github.com/nobonobo/folio-room/host/transform"
	"github.com/nobonobo/folio-room/host/world"
	"github.com/nobonobo/folio-room/schema"
)

type composition struct {
	Root   *graph.Root
	Report *world.Report
}

func assetsFS(cfg config.Config) fs.FS {
	if cfg.Assets.Dir == "" {
		return resources.Room
	}
	return os.DirFS(cfg.Assets.Dir)
}

func readManifest(fsys fs.FS, path string) (asset.Manifest, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return asset.Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	document, err := schema.ParseManifest(data)
	if err != nil {
		return asset.Manifest{}, err
	}
	manifest := asset.ManifestFromSchema(document)
	if err := manifest.Validate(); err != nil {
		return asset.Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return manifest, nil
}

func readRegistry(fsys fs.FS, path string) (*transform.Registry, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transforms: %w", err)
	}
	table, err := schema.ParseTransforms(data)
	if err != nil {
		return nil, err
	}
	return transform.RegistryFromSchema(table)
}

// compose loads the manifest and drives the loader and the world on the
// calling goroutine until the base group has been built.
func compose(ctx context.Context, cfg config.Config, logger *slog.Logger) (*composition, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout, err := cfg.LoadTimeout()
	if err != nil {
		return nil, err
	}

	fsys := assetsFS(cfg)
	manifest, err := readManifest(fsys, cfg.Assets.Manifest)
	if err != nil {
		return nil, err
	}
	registry, err := readRegistry(fsys, cfg.Assets.Transforms)
	if err != nil {
		return nil, err
	}

	queue := loop.NewQueue()
	loader := asset.NewLoader(queue, asset.NewGLTFDecoder(resource.NewFSLocator(fsys)), asset.LoaderInfo{
		Concurrency: opt.V(cfg.Loader.Concurrency),
		Logger:      opt.V(logger),
	})
	env := &room.Env{
		Items:    loader,
		Registry: registry,
		Pool:     material.NewPool(),
		Root:     graph.NewRoot(),
	}
	scene := world.New(env, world.Info{
		BaseGroup: opt.V(cfg.World.BaseGroup),
		Logger:    opt.V(logger),
	})
	if err := scene.Declare(cfg.World.BaseGroup, room.Default()...); err != nil {
		return nil, err
	}
	scene.Bind(loader)
	defer scene.Unbind()

	unsubscribe := loader.Subscribe(asset.EventProgress, func(event asset.Event) {
		progress := event.(asset.ProgressEvent)
		logger.Debug("Asset loaded",
			slog.String("group", progress.Group),
			slog.String("asset", progress.Name),
			slog.Int("loaded", progress.Loaded),
			slog.Int("total", progress.Total),
		)
	})
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info("Loading", slog.Int("assets", manifest.Len()))
	if err := loader.Load(ctx, manifest); err != nil {
		return nil, err
	}

	var (
		report  *world.Report
		failure error
		settled bool
	)
	loop.Bind(queue, scene.Ready(),
		func(value *world.Report) {
			report = value
			settled = true
		},
		func(err error) {
			failure = err
			settled = true
		},
	)
	if err := queue.RunUntil(ctx, func() bool { return settled }); err != nil {
		loaded, total := loader.Progress()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("room not ready after %s with %d of %d assets loaded; raise loader.timeout or %s: %w",
				timeout, loaded, total, config.EnvLoadTimeout, err)
		}
		return nil, err
	}
	if failure != nil {
		return nil, fmt.Errorf("room cannot be built, fix or replace the asset: %w", failure)
	}

	logger.Info("Composed",
		slog.Int("objects", len(report.Objects)),
		slog.Int("skipped", len(report.Failures)),
	)
	return &composition{
		Root:   env.Root,
		Report: report,
	}, nil
}

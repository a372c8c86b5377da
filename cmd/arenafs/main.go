package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/arenafs/arenafs/internal/config"
	"github.com/arenafs/arenafs/internal/crypto"
	httpdelivery "github.com/arenafs/arenafs/internal/delivery/http"
	"github.com/arenafs/arenafs/internal/domain"
	"github.com/arenafs/arenafs/internal/fs"
	volumehttp "github.com/arenafs/arenafs/internal/http"
	"github.com/arenafs/arenafs/internal/logger"
	"github.com/arenafs/arenafs/internal/manifest"
	"github.com/arenafs/arenafs/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel())

	app := &cli.App{
		Name:  "arenafs",
		Usage: "single-volume inode filesystem over a fixed block arena",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "image",
				Usage: "path to the volume image",
				Value: cfg.ImagePath,
			},
			&cli.UintFlag{
				Name:  "blocks",
				Usage: "total block count for new volumes",
				Value: uint(cfg.NumBlocks),
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "passphrase for encrypted images",
				Value: cfg.EncryptKey,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a new volume image",
				Action: func(c *cli.Context) error {
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					sb := vol.Superblock()
					fmt.Printf("volume %s: %d blocks, %d free\n",
						c.String("image"), sb.NumBlocks, sb.FreeBlocks)
					return vol.Close()
				},
			},
			{
				Name:      "mkdir",
				Usage:     "insert a directory under a parent inode",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "parent", Value: int(domain.RootInode)},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("expected exactly one NAME argument")
					}
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					idx, err := vol.Mkdir(c.Args().First(), int32(c.Int("parent")))
					if err != nil {
						return err
					}
					fmt.Printf("directory %q at inode %d\n", c.Args().First(), idx)
					return vol.Close()
				},
			},
			{
				Name:      "write",
				Usage:     "create a file and attach data to it",
				ArgsUsage: "NAME DATA",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "parent", Value: int(domain.RootInode)},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return errors.New("expected NAME and DATA arguments")
					}
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					idx, err := vol.CreateFile(c.Args().Get(0), int32(c.Int("parent")))
					if err != nil {
						return err
					}
					data := []byte(c.Args().Get(1))
					for len(data) > 0 {
						chunk := data
						if len(chunk) > domain.BlockSize {
							chunk = chunk[:domain.BlockSize]
						}
						block, slot, err := vol.Append(idx, chunk)
						if err != nil {
							return err
						}
						fmt.Printf("inode %d slot %d -> block %d (%d bytes)\n", idx, slot, block, len(chunk))
						data = data[len(chunk):]
					}
					return vol.Close()
				},
			},
			{
				Name:      "check",
				Usage:     "verify an inode against an expected model",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "index", Required: true},
					&cli.IntFlag{Name: "type", Value: int(domain.NodeDirectory)},
					&cli.IntFlag{Name: "parent", Value: int(domain.RootInode)},
					&cli.StringFlag{Name: "slots", Usage: "comma-separated leading slot values"},
					&cli.BoolFlag{Name: "skip-links", Usage: "skip parent/child link verification"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("expected exactly one NAME argument")
					}
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					slots, err := parseSlots(c.String("slots"))
					if err != nil {
						return err
					}
					want := fs.ExpectedNode(
						c.Args().First(),
						domain.NodeType(c.Int("type")),
						int32(c.Int("parent")),
						slots...,
					)
					if err := vol.Check(int32(c.Int("index")), want, !c.Bool("skip-links")); err != nil {
						return err
					}
					fmt.Printf("inode %d: ok\n", c.Int("index"))
					return nil
				},
			},
			{
				Name:  "ls",
				Usage: "list a directory inode",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "parent", Value: int(domain.RootInode)},
				},
				Action: func(c *cli.Context) error {
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					entries, err := vol.List(int32(c.Int("parent")))
					if err != nil {
						return err
					}
					for _, e := range entries {
						fmt.Printf("%4d  %-9s %5d  %s\n", e.Index, e.Type, e.Size, e.Name)
					}
					return nil
				},
			},
			{
				Name:      "apply",
				Usage:     "materialize a YAML manifest onto the volume",
				ArgsUsage: "MANIFEST",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("expected exactly one MANIFEST argument")
					}
					m, err := manifest.Load(c.Args().First())
					if err != nil {
						return err
					}
					if m.Blocks > 0 {
						if err := c.Set("blocks", fmt.Sprint(m.Blocks)); err != nil {
							return err
						}
					}
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					if err := m.Apply(vol); err != nil {
						return err
					}
					return vol.Close()
				},
			},
			{
				Name:  "serve",
				Usage: "serve the volume over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: cfg.HTTPAddr},
					&cli.StringFlag{Name: "browse", Usage: "address for the HTML volume browser"},
				},
				Action: func(c *cli.Context) error {
					vol, err := openVolume(c)
					if err != nil {
						return err
					}
					return serve(c.String("addr"), c.String("browse"), cfg.AuthToken, vol)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openVolume(c *cli.Context) (*fs.FileSystem, error) {
	path := c.String("image")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	if key := c.String("key"); key != "" {
		sealer, err := crypto.NewSealer(crypto.DeriveKey(key))
		if err != nil {
			return nil, err
		}
		return fs.OpenSealed(path, uint32(c.Uint("blocks")), sealer)
	}
	return fs.Open(path, uint32(c.Uint("blocks")))
}

func parseSlots(raw string) ([]int32, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	slots := make([]int32, 0, len(parts))
	for _, p := range parts {
		var v int32
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &v); err != nil {
			return nil, fmt.Errorf("invalid slot value %q", p)
		}
		slots = append(slots, v)
	}
	return slots, nil
}

func serve(addr, browseAddr, authToken string, vol *fs.FileSystem) error {
	svc := usecase.NewVolumeService(vol)
	srv := httpdelivery.NewServer(addr, httpdelivery.NewHandler(svc, authToken))
	if err := srv.Start(); err != nil {
		return err
	}

	var browser *volumehttp.Browser
	if browseAddr != "" {
		browser = volumehttp.NewBrowser(vol)
		if err := browser.Start(browseAddr); err != nil {
			logger.Warn("Failed to start volume browser: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	if browser != nil {
		browser.Stop()
	}
	srv.Stop()
	return vol.Close()
}

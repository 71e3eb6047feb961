// Command spritedemo renders a sprite scene through the video pipeline and
// saves the presented frame.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/config"
	_ "github.com/gogpu/sprite/gpu" // GPU device, falls back to software
)

func main() {
	var (
		cfgPath = flag.String("config", config.FileName, "settings file")
		output  = flag.String("output", "frame.png", "output file")
		mode    = flag.String("mode", "", "video mode, overrides the settings file")
		preload = flag.Bool("preload", false, "decode the images listed as arguments before drawing")
		verbose = flag.Bool("v", false, "log renderer activity")
	)
	flag.Parse()

	if *verbose {
		sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.LoadOptional(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("%s: %v", *cfgPath, err)
	}

	var frame *sprite.Pixels
	opts = append(opts, sprite.WithPresentHook(func(screen *sprite.Image, _ sprite.Rect) {
		p, err := screen.Pixels()
		if err != nil {
			log.Printf("Failed to read frame: %v", err)
			return
		}
		frame = p
	}))
	if *mode != "" {
		opts = append(opts, sprite.WithVideoMode(*mode))
	}

	video, err := sprite.NewVideo(opts...)
	if err != nil {
		log.Fatalf("Failed to open video: %v", err)
	}
	defer video.Close()

	if id := cfg.Video.Shader; id != "" {
		if err := video.SetShader(video.Renderer().NewShaderByID(id)); err != nil {
			log.Fatalf("Failed to set shader %s: %v", id, err)
		}
	}

	if *preload && flag.NArg() > 0 {
		if err := video.Preload(context.Background(), flag.Args()); err != nil {
			log.Fatalf("Failed to preload: %v", err)
		}
	}

	quest, err := sprite.NewImage(video.Renderer(), video.QuestSize().W, video.QuestSize().H)
	if err != nil {
		log.Fatalf("Failed to create quest image: %v", err)
	}
	defer quest.Release()

	if err := drawScene(video, quest, flag.Args()); err != nil {
		log.Fatalf("Failed to draw: %v", err)
	}

	video.Render(quest)
	if err := video.Present(); err != nil {
		log.Fatalf("Failed to present: %v", err)
	}
	if frame == nil {
		log.Fatal("No frame presented (window disabled?)")
	}
	if err := frame.SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	st := video.Renderer().Stats()
	log.Printf("Frame saved to %s (%dx%d, %s, mode %s, %d submissions for %d quads)\n",
		*output, frame.Width, frame.Height, video.RendererName(), video.VideoMode(), st.Submissions, st.Quads)
}

// drawScene paints a background, a ring of rotated tiles and the named
// images along the bottom edge.
func drawScene(video *sprite.Video, quest *sprite.Image, names []string) error {
	r := video.Renderer()
	size := quest.Size()

	steps := 16
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps)
		c := sprite.RGBA(uint8(25+t*100), uint8(50+t*75), uint8(100+t*50), 255)
		y := size.H * i / steps
		quest.FillRect(c, sprite.Rect{Y: y, W: size.W, H: size.H/steps + 1})
	}

	tile, err := sprite.NewImageFromPixels(r, checker(16, 16))
	if err != nil {
		return err
	}
	defer tile.Release()

	center := sprite.Point{X: size.W / 2, Y: size.H / 2}
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		pos := sprite.Point{
			X: center.X + int(60*math.Cos(angle)) - 8,
			Y: center.Y + int(60*math.Sin(angle)) - 8,
		}
		infos := sprite.NewDrawInfos(tile.Bounds(), pos, nil).
			WithOrigin(sprite.Point{X: 8, Y: 8}).
			WithRotation(angle).
			WithOpacity(uint8(128 + i*16))
		tile.Draw(quest, infos)
	}

	// A proxy chain that draws a drop shadow before the sprite itself.
	shadow := sprite.ProxyFunc(func(dst, src *sprite.Image, infos sprite.DrawInfos) {
		sprite.Forward(dst, src, infos.WithPosition(infos.DstPosition.Add(sprite.Point{X: 3, Y: 3})).
			WithColor(sprite.Black).WithOpacity(96).WithProxy(nil))
		sprite.Forward(dst, src, infos)
	})
	chain := sprite.MustChain(shadow)
	tile.Draw(quest, sprite.NewDrawInfos(tile.Bounds(), center.Sub(sprite.Point{X: 8, Y: 8}), chain).
		WithScale(sprite.Uniform(2)).WithBlendMode(sprite.BlendAdd))

	x := 4
	for _, name := range names {
		img, err := video.LoadImage(name)
		if err != nil {
			return err
		}
		img.DrawAt(quest, sprite.Point{X: x, Y: size.H - img.Size().H - 4})
		x += img.Size().W + 4
		img.Release()
	}
	return nil
}

func checker(w, h int) *sprite.Pixels {
	p := sprite.NewPixels(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := sprite.RGBA(240, 200, 60, 255)
			if (x/4+y/4)%2 == 1 {
				c = sprite.RGBA(200, 40, 90, 255)
			}
			i := (y*w + x) * 4
			p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return p
}

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mgerste/blamewheel/internal/ai"
	"github.com/mgerste/blamewheel/internal/ai/ollama"
	"github.com/mgerste/blamewheel/internal/ai/openai"
	"github.com/mgerste/blamewheel/internal/config"
	"github.com/mgerste/blamewheel/internal/engine"
	"github.com/mgerste/blamewheel/internal/game"
	"github.com/mgerste/blamewheel/internal/party"
	"github.com/mgerste/blamewheel/internal/ws"
)

const version = "v1.1.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides config)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Blamewheel - Real-time blame party game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080)

Configuration is read from ./blamewheel.toml (or BLAMEWHEEL_CONFIG) plus
environment overrides with the BLAMEWHEEL_ prefix, e.g.:

  BLAMEWHEEL_PORT               Port to listen on
  BLAMEWHEEL_PUBLIC_URL         Base URL used in join links and QR codes
  BLAMEWHEEL_GM_USER            GM route basic auth username
  BLAMEWHEEL_GM_PASS            GM route basic auth password
  BLAMEWHEEL_CONTENT_TYPE       Question source: "file" or "ai"
  BLAMEWHEEL_CONTENT_SOURCE     Question pool path (empty = embedded pool)
  BLAMEWHEEL_CONTENT_SHUFFLE    Shuffle the pool at load ("true"/"false")
  BLAMEWHEEL_EXPORT_ENABLED     Export game results to file
  BLAMEWHEEL_EXPORT_FILE        Path to export game results
  OPENAI_API_KEY                OpenAI API key (for the "ai" question source)

The server exposes the Socket.IO endpoint and the HTTP API; check
http://localhost:8080/health after starting.
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Blamewheel %s\n", version)
		return
	}

	// .env is optional, env overrides still apply
	_ = godotenv.Load()

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg, err := config.Load()
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("load config")
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	rm := game.NewRoomManager(moduleFactory(cfg))
	sock := ws.New(rm, cfg)
	io := sock.Mount(r)
	defer io.Close()

	r.GET("/api/session/active", func(c *gin.Context) {
		if code, sess := rm.Active(); sess != nil {
			c.JSON(http.StatusOK, gin.H{"sessionCode": code})
			return
		}
		c.Status(http.StatusNotFound)
	})

	// Join link QR code for the shared screen
	r.GET("/api/session/:code/qr", func(c *gin.Context) {
		code := c.Param("code")
		if _, err := rm.Get(code); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(cfg.PublicURL+"/join/"+code, qrcode.Medium, 256)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	// GM-protected session creation
	if cfg.GMUser != "" && cfg.GMPass != "" {
		auth := gin.BasicAuth(gin.Accounts{cfg.GMUser: cfg.GMPass})
		r.POST("/api/gm/create", auth, func(c *gin.Context) {
			sess, err := rm.CreateSession()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			sock.Watch(sess)
			c.JSON(http.StatusOK, gin.H{"sessionCode": sess.Code, "hostToken": sess.HostToken})
		})
	}

	zerologlog.Info().Str("port", cfg.Port).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server stopped")
	}
}

// moduleFactory builds a fresh party module per session from the server
// config.
func moduleFactory(cfg config.Config) func() *party.Module {
	moduleCfg := party.NewConfig(
		engine.ContentConfig{
			Type:    cfg.Content.Type,
			Source:  cfg.Content.Source,
			Shuffle: cfg.Content.Shuffle,
			Seed:    cfg.Content.Seed,
		},
		engine.GameplayConfig{MinPlayers: cfg.Gameplay.MinPlayers},
	)

	return func() *party.Module {
		var source party.Source
		switch cfg.Content.Type {
		case "ai":
			var provider ai.Provider
			if cfg.AI.Provider == "ollama" {
				provider = ollama.New(cfg.AI.OllamaHost)
			} else {
				provider = openai.New(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL)
			}
			source = party.AISource{
				Provider:     provider,
				Model:        cfg.AI.Model,
				SystemPrompt: cfg.AI.SystemPrompt,
				Count:        cfg.AI.Count,
			}
		default:
			source = party.FileSource{Path: cfg.Content.Source}
		}
		return party.NewModule(moduleCfg, source)
	}
}

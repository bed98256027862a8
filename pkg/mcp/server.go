// Package mcp exposes the Discord scraping operations as Model Context
// Protocol tools over stdio. It owns everything the core treats as
// external: input validation, outgoing message chunking, JSON
// serialization and the process-wide operation gate.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/entrhq/discord-mcp/pkg/config"
	"github.com/entrhq/discord-mcp/pkg/discord"
)

const (
	serverName    = "discord-mcp"
	serverVersion = "0.1.0"
)

// Server wires the Discord scraping core into an MCP stdio server.
type Server struct {
	cfg config.Config
	log *zap.Logger

	// gate serializes all tool calls process-wide: each call owns a fresh
	// browser session from creation through teardown, and two live
	// Chromium instances fighting over one credential set help nobody.
	gate *semaphore.Weighted

	srv *server.MCPServer
}

// New builds the server and registers all tools.
func New(cfg config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:  cfg,
		log:  log,
		gate: semaphore.NewWeighted(1),
	}
	s.srv = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Debug("discord mcp server starting up")
	defer s.log.Debug("discord mcp server shutting down")
	return server.ServeStdio(s.srv)
}

// sessionOptions maps the application config onto core session options.
func (s *Server) sessionOptions() discord.Options {
	return discord.Options{
		Email:     s.cfg.Email,
		Password:  s.cfg.Password,
		Headless:  s.cfg.Headless,
		ExtraWait: s.cfg.ExtraWait(),
		StateFile: s.cfg.StateFile,
	}
}

// withFreshSession runs one operation under the gate with a session that
// lives exactly as long as the call: created before, torn down after,
// never shared. The operation must return the latest session value even
// on error so teardown releases everything it acquired.
func (s *Server) withFreshSession(ctx context.Context, op func(discord.Session) (discord.Session, error)) error {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.gate.Release(1)

	sess := discord.NewSession(s.sessionOptions(), s.log)
	defer func() {
		s.log.Debug("cleaning up browser resources")
		sess.Close()
	}()

	var err error
	sess, err = op(sess)
	return err
}

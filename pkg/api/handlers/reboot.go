package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os/exec"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/growbox/pkg/api/types"
	"golang.org/x/crypto/bcrypt"
)

// CommandRunner runs a system command.
type CommandRunner func(ctx context.Context, argv []string) error

// ExecRunner runs argv with os/exec.
func ExecRunner(ctx context.Context, argv []string) error {
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}

// rebootDelay lets the response reach the client before the command runs.
const rebootDelay = time.Second

// RebootHandler runs the configured reboot command for authenticated callers
type RebootHandler struct {
	user    string
	hash    []byte
	command []string
	run     CommandRunner
	delay   time.Duration
}

// NewRebootHandler creates a new reboot handler. passwordHash is a bcrypt
// hash; an empty command disables the route.
func NewRebootHandler(user, passwordHash string, command []string, run CommandRunner) *RebootHandler {
	if run == nil {
		run = ExecRunner
	}
	return &RebootHandler{
		user:    user,
		hash:    []byte(passwordHash),
		command: command,
		run:     run,
		delay:   rebootDelay,
	}
}

// Reboot handles POST /reboot
// @Summary      Reboot the box
// @Description  Runs the configured reboot command. Requires HTTP basic auth.
// @Tags         system
// @Produce      json
// @Security     BasicAuth
// @Success      202  {object}  types.StatusResponse
// @Failure      401  {object}  types.ErrorResponse  "Missing or wrong credentials"
// @Failure      501  {object}  types.ErrorResponse  "No reboot command configured"
// @Router       /reboot [post]
func (h *RebootHandler) Reboot(c *gin.Context) {
	if len(h.command) == 0 {
		c.JSON(http.StatusNotImplemented, types.ErrorResponse{
			Error:   "not_configured",
			Message: "No reboot command configured",
		})
		return
	}

	user, password, ok := c.Request.BasicAuth()
	if !ok || !h.authorized(user, password) {
		c.Header("WWW-Authenticate", `Basic realm="growbox"`)
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid credentials",
		})
		return
	}

	log.Warn().Str("user", user).Strs("command", h.command).Msg("Reboot requested")
	go func() {
		time.Sleep(h.delay)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := h.run(ctx, h.command); err != nil {
			log.Error().Err(err).Msg("Reboot command failed")
		}
	}()

	c.JSON(http.StatusAccepted, types.StatusResponse{Status: "rebooting"})
}

func (h *RebootHandler) authorized(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(h.hash, []byte(password)) == nil
	return userOK && passOK
}

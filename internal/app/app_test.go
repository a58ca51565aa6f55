package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/collection-listing/internal/platform/logger"
)

func TestCloseRunsStepsInReverse(t *testing.T) {
	a := &App{Log: logger.Nop()}
	var order []string
	for _, name := range []string{"otel", "clients", "cache"} {
		name := name
		a.onClose(name, func(context.Context) error {
			order = append(order, name)
			if name == "clients" {
				return errors.New("boom")
			}
			return nil
		})
	}

	a.Close()
	if got := strings.Join(order, ","); got != "cache,clients,otel" {
		t.Fatalf("close order: want=cache,clients,otel got=%s", got)
	}

	a.Close()
	if len(order) != 3 {
		t.Fatalf("second Close: want no steps rerun got=%v", order)
	}
}

func TestRunRequiresServer(t *testing.T) {
	var a *App
	if err := a.Run(context.Background()); err == nil {
		t.Fatalf("Run on nil app: want error")
	}
	a.Close()
}

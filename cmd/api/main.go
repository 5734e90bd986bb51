package main

import (
	"go.uber.org/fx"

	"github.com/abebe-delivery/gateway/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}

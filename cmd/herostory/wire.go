//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/internal/data"
	"github.com/yola1107/herostory/internal/server"
	"github.com/yola1107/herostory/internal/service"
)

// wireApp init kratos application.
func wireApp(config.Config, *conf.Server, *conf.Data, *conf.Room, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}

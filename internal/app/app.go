package app

import (
	"go.uber.org/fx"

	"github.com/abebe-delivery/gateway/internal/bot"
	"github.com/abebe-delivery/gateway/internal/cache"
	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/dedup"
	"github.com/abebe-delivery/gateway/internal/logger"
	"github.com/abebe-delivery/gateway/internal/messaging"
	"github.com/abebe-delivery/gateway/internal/notify"
	"github.com/abebe-delivery/gateway/internal/observability"
	"github.com/abebe-delivery/gateway/internal/orderflow"
	repositorycatalog "github.com/abebe-delivery/gateway/internal/repository/catalog"
	repositoryorder "github.com/abebe-delivery/gateway/internal/repository/order"
	repositoryprofile "github.com/abebe-delivery/gateway/internal/repository/profile"
	repositoryreview "github.com/abebe-delivery/gateway/internal/repository/review"
	repositorysession "github.com/abebe-delivery/gateway/internal/repository/session"
	repositorytelemetry "github.com/abebe-delivery/gateway/internal/repository/telemetry"
	httpserver "github.com/abebe-delivery/gateway/internal/server/http"
	serviceorder "github.com/abebe-delivery/gateway/internal/service/order"
	transporthttp "github.com/abebe-delivery/gateway/internal/transport/http"
	"github.com/abebe-delivery/gateway/internal/worker"
	workerorder "github.com/abebe-delivery/gateway/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	dedup.Module,
	repositoryorder.Module,
	repositoryprofile.Module,
	repositorycatalog.Module,
	repositoryreview.Module,
	repositorysession.Module,
	repositorytelemetry.Module,
	orderflow.Module,
	serviceorder.Module,
	notify.Module,
	bot.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background message processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP

package app

import (
	"go.uber.org/fx"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/logger"
	"github.com/nrbrt02/fast-shopping/internal/messaging"
	"github.com/nrbrt02/fast-shopping/internal/migration"
	"github.com/nrbrt02/fast-shopping/internal/observability"
	repositoryorder "github.com/nrbrt02/fast-shopping/internal/repository/order"
	repositoryproduct "github.com/nrbrt02/fast-shopping/internal/repository/product"
	grpcserver "github.com/nrbrt02/fast-shopping/internal/server/grpc"
	httpserver "github.com/nrbrt02/fast-shopping/internal/server/http"
	serviceorder "github.com/nrbrt02/fast-shopping/internal/service/order"
	"github.com/nrbrt02/fast-shopping/internal/seeder"
	serviceproduct "github.com/nrbrt02/fast-shopping/internal/service/product"
	transporthttp "github.com/nrbrt02/fast-shopping/internal/transport/http"
	"github.com/nrbrt02/fast-shopping/internal/worker"
	workerorder "github.com/nrbrt02/fast-shopping/internal/worker/order"
)

// Infrastructure holds configuration and the clients every executable shares.
var Infrastructure = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	database.Module,
	cache.Module,
	messaging.Module,
)

// Domain holds the stores and services for products and orders.
var Domain = fx.Options(
	repositoryproduct.Module,
	repositoryorder.Module,
	serviceproduct.Module,
	serviceorder.Module,
)

// Core is everything needed to run order operations, without any server.
var Core = fx.Options(Infrastructure, Domain)

// HTTP serves the storefront API plus the gRPC health endpoint.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker consumes order events.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Migrate provides the schema migrator.
var Migrate = fx.Options(Infrastructure, migration.Module)

// Seed provides the demo data seeder.
var Seed = fx.Options(Infrastructure, seeder.Module)

// Module is the default application wiring.
var Module = HTTP

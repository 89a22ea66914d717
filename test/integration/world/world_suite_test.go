// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

//go:build integration

package world_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bubblehouse/gomoo/internal/access"
	authpg "github.com/bubblehouse/gomoo/internal/auth/postgres"
	"github.com/bubblehouse/gomoo/internal/store"
	"github.com/bubblehouse/gomoo/internal/world"
	worldpg "github.com/bubblehouse/gomoo/internal/world/postgres"
)

func TestWorld(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "World Model Integration Suite")
}

// testEnv holds all resources needed for integration tests.
type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	container testcontainers.Container

	Objects    *worldpg.ObjectRepository
	Properties *worldpg.PropertyRepository
	Verbs      *worldpg.VerbRepository
	Rules      *worldpg.RuleRepository
	Players    *authpg.PlayerRepository

	Service  *world.Service
	Resolver *world.Resolver
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupWorldTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupWorldTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gomoo_test"),
		postgres.WithUsername("gomoo"),
		postgres.WithPassword("gomoo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Close(); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	objects := worldpg.NewObjectRepository(pool)
	properties := worldpg.NewPropertyRepository(pool)
	verbs := worldpg.NewVerbRepository(pool)
	rules := worldpg.NewRuleRepository(pool)
	players := authpg.NewPlayerRepository(pool)

	svc := world.NewService(world.ServiceConfig{
		ObjectRepo:   objects,
		PropertyRepo: properties,
		VerbRepo:     verbs,
		RuleRepo:     rules,
		Checker:      access.NewEngine(rules, players),
		Transactor:   worldpg.NewTransactor(pool),
	})

	return &testEnv{
		ctx:        ctx,
		pool:       pool,
		container:  container,
		Objects:    objects,
		Properties: properties,
		Verbs:      verbs,
		Rules:      rules,
		Players:    players,
		Service:    svc,
		Resolver:   world.NewResolver(objects, properties, verbs),
	}, nil
}

func (e *testEnv) cleanup() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}

// resetWorld removes all world state between specs.
func resetWorld(ctx context.Context, pool *pgxpool.Pool) {
	_, _ = pool.Exec(ctx, "DELETE FROM access_rules")
	_, _ = pool.Exec(ctx, "DELETE FROM properties")
	_, _ = pool.Exec(ctx, "DELETE FROM verbs")
	_, _ = pool.Exec(ctx, "DELETE FROM relationships")
	_, _ = pool.Exec(ctx, "DELETE FROM players")
	_, _ = pool.Exec(ctx, "UPDATE objects SET owner_id = NULL, location_id = NULL")
	_, _ = pool.Exec(ctx, "DELETE FROM objects")
}

// mustCreate builds an object through the service without an acting session.
func mustCreate(name string, params world.CreateObjectParams) *world.Object {
	params.Name = name
	obj, err := env.Service.CreateObject(env.ctx, nil, params)
	Expect(err).NotTo(HaveOccurred())
	return obj
}

func strValue(s string) *string { return &s }

func ulidPtr(id ulid.ULID) *ulid.ULID { return &id }

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/auth"
	"github.com/bubblehouse/gomoo/internal/world"
)

// ApplierConfig holds the dependencies for Applier.
type ApplierConfig struct {
	World world.Mutator
	// Objects is needed directly for the ownership fixup pass: the seed
	// may declare self-owned or forward-owned objects, which no mutator
	// operation can express.
	Objects world.ObjectRepository
	Auth    *auth.Service
	Logger  *slog.Logger
}

// Options tunes one Apply run.
type Options struct {
	// PlayerPassword is assigned to every account the seed creates.
	// Seeds never carry passwords.
	PlayerPassword string
}

// Applier loads seeds into the world. All world mutations go through the
// Mutator with a nil session, which the service recognizes as bootstrap
// mode and exempts from permission checks.
type Applier struct {
	world   world.Mutator
	objects world.ObjectRepository
	auth    *auth.Service
	logger  *slog.Logger
}

// NewApplier creates an Applier from the given config.
func NewApplier(cfg ApplierConfig) *Applier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{world: cfg.World, objects: cfg.Objects, auth: cfg.Auth, logger: logger}
}

// Apply loads the seed. It is idempotent for unique-named objects: an
// object whose unique name already exists is reused rather than
// recreated, so running the same seed twice does not duplicate the world.
func (a *Applier) Apply(ctx context.Context, seed *Seed, opts Options) error {
	byRef := make(map[string]*world.Object, len(seed.Objects))

	// Pass 1: bring every object into existence, bare. Ownership,
	// location, and ancestry wait until all refs resolve.
	for _, spec := range seed.Objects {
		obj, existed, err := a.ensureObject(ctx, spec)
		if err != nil {
			return err
		}
		byRef[spec.Ref] = obj
		if existed {
			a.logger.InfoContext(ctx, "seed object already exists, reusing",
				slog.String("ref", spec.Ref),
				slog.String("name", spec.Name),
				slog.String("id", obj.ID.String()))
		}
	}

	// Pass 2: wire references.
	for _, spec := range seed.Objects {
		obj := byRef[spec.Ref]

		if spec.Owner != "" {
			owner := byRef[spec.Owner]
			obj.OwnerID = &owner.ID
			if err := a.objects.Update(ctx, obj); err != nil {
				return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
					With("ref", spec.Ref).With("step", "owner").Wrap(err)
			}
		}

		if spec.Location != "" {
			loc := byRef[spec.Location]
			if err := a.world.MoveObject(ctx, nil, obj, &loc.ID); err != nil {
				return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
					With("ref", spec.Ref).With("step", "location").Wrap(err)
			}
		}

		for i, parentRef := range spec.Parents {
			parent := byRef[parentRef]
			err := a.world.AddParent(ctx, nil, obj, parent.ID, i)
			if err != nil && !errors.Is(err, world.ErrInvariantViolation) {
				return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
					With("ref", spec.Ref).With("step", "parent").With("parent", parentRef).Wrap(err)
			}
		}
	}

	// Pass 3: properties and verbs, now that owners are settled.
	for _, spec := range seed.Objects {
		obj := byRef[spec.Ref]

		for _, prop := range spec.Properties {
			value := prop.Value
			propType := world.PropertyType(prop.Type)
			if propType == "" {
				propType = world.PropertyString
			}
			_, err := a.world.SetProperty(ctx, nil, obj, world.SetPropertyParams{
				Name:      prop.Name,
				Value:     &value,
				Type:      propType,
				Inherited: prop.Inherited,
				OwnerID:   obj.OwnerID,
			})
			if err != nil {
				return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
					With("ref", spec.Ref).With("step", "property").With("property", prop.Name).Wrap(err)
			}
		}

		for _, verb := range spec.Verbs {
			_, err := a.world.AddVerb(ctx, nil, obj, world.AddVerbParams{
				Names:   verb.Names,
				Code:    verb.Code,
				Ability: verb.Ability,
				Method:  verb.Method,
				OwnerID: obj.OwnerID,
			})
			if err != nil {
				return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
					With("ref", spec.Ref).With("step", "verb").With("verb", verb.Names[0]).Wrap(err)
			}
		}
	}

	// Pass 4: accounts.
	for _, spec := range seed.Objects {
		if spec.Player == nil {
			continue
		}
		if err := a.ensurePlayer(ctx, spec, byRef[spec.Ref], opts); err != nil {
			return err
		}
	}

	a.logger.InfoContext(ctx, "seed applied",
		slog.String("seed", seed.Name),
		slog.Int("objects", len(seed.Objects)))
	return nil
}

// ensureObject returns the existing unique-named object, or creates a new
// one. The returned bool reports whether the object already existed.
func (a *Applier) ensureObject(ctx context.Context, spec ObjectSeed) (*world.Object, bool, error) {
	if spec.UniqueName {
		existing, err := a.objects.GetByName(ctx, spec.Name)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, world.ErrNotFound) {
			return nil, false, oops.In("bootstrap").Code("SEED_APPLY_FAILED").
				With("ref", spec.Ref).With("step", "lookup").Wrap(err)
		}
	}

	obvious := true
	if spec.Obvious != nil {
		obvious = *spec.Obvious
	}
	obj, err := a.world.CreateObject(ctx, nil, world.CreateObjectParams{
		Name:       spec.Name,
		UniqueName: spec.UniqueName,
		Obvious:    obvious,
		Aliases:    spec.Aliases,
	})
	if err != nil {
		return nil, false, oops.In("bootstrap").Code("SEED_APPLY_FAILED").
			With("ref", spec.Ref).With("step", "create").Wrap(err)
	}
	return obj, false, nil
}

// ensurePlayer registers the account bound to obj, skipping accounts that
// already exist.
func (a *Applier) ensurePlayer(ctx context.Context, spec ObjectSeed, obj *world.Object, opts Options) error {
	player, err := a.auth.Register(ctx, spec.Player.Username, opts.PlayerPassword)
	if errors.Is(err, auth.ErrUsernameTaken) {
		a.logger.InfoContext(ctx, "seed player already exists, skipping",
			slog.String("username", spec.Player.Username))
		return nil
	}
	if err != nil {
		return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
			With("ref", spec.Ref).With("step", "register").Wrap(err)
	}

	if err := a.auth.BindAvatar(ctx, player.ID, obj.ID); err != nil {
		return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
			With("ref", spec.Ref).With("step", "bind avatar").Wrap(err)
	}
	if spec.Player.Wizard {
		if err := a.auth.SetWizard(ctx, player.ID, true); err != nil {
			return oops.In("bootstrap").Code("SEED_APPLY_FAILED").
				With("ref", spec.Ref).With("step", "set wizard").Wrap(err)
		}
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

//go:build integration

package world_test

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/auth"
	"github.com/bubblehouse/gomoo/internal/session"
	"github.com/bubblehouse/gomoo/internal/world"
)

var _ = Describe("Capability rules", func() {
	BeforeEach(func() {
		resetWorld(env.ctx, env.pool)
	})

	It("creates the default ACL alongside each object", func() {
		obj := mustCreate("brass lamp", world.CreateObjectParams{})

		rules, err := env.Rules.ListBySubject(env.ctx, obj.Subject())
		Expect(err).NotTo(HaveOccurred())
		Expect(rules).To(HaveLen(3))

		// wizards/anything, owners/anything, everyone/read.
		Expect(rules[0].Group).To(Equal(access.GroupWizards))
		Expect(rules[1].Group).To(Equal(access.GroupOwners))
		Expect(rules[2].Group).To(Equal(access.GroupEveryone))
		Expect(rules[2].Permission).To(Equal(access.PermRead))
	})

	It("lets owners write and strangers only read", func() {
		owner := mustCreate("Alice", world.CreateObjectParams{})
		stranger := mustCreate("Bob", world.CreateObjectParams{})
		thing := mustCreate("notebook", world.CreateObjectParams{OwnerID: ulidPtr(owner.ID)})

		_, err := env.Service.SetProperty(env.ctx, session.New(owner.ID, nil), thing, world.SetPropertyParams{
			Name: "title", Value: strValue("lab notes"), Type: world.PropertyString,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Service.SetProperty(env.ctx, session.New(stranger.ID, nil), thing, world.SetPropertyParams{
			Name: "title", Value: strValue("my notes now"), Type: world.PropertyString,
		})
		Expect(errors.Is(err, world.ErrPermissionDenied)).To(BeTrue())

		got, err := env.Service.GetProperty(env.ctx, session.New(stranger.ID, nil), thing, "title", false)
		Expect(err).NotTo(HaveOccurred(), "everyone/read default applies")
		Expect(*got.Value).To(Equal("lab notes"))
	})

	It("applies deny over allow at any weight", func() {
		owner := mustCreate("Alice", world.CreateObjectParams{})
		reader := mustCreate("Bob", world.CreateObjectParams{})
		thing := mustCreate("diary", world.CreateObjectParams{OwnerID: ulidPtr(owner.ID)})

		ownerSess := session.New(owner.ID, nil)
		Expect(env.Service.Deny(env.ctx, ownerSess, thing.Subject(),
			access.ForObject(reader.ID), access.PermRead)).To(Succeed())

		_, err := env.Service.GetProperty(env.ctx, session.New(reader.ID, nil), thing, "anything", false)
		Expect(errors.Is(err, world.ErrPermissionDenied)).To(BeTrue(),
			"deny beats the everyone/read allow")

		// Revoking the deny restores the default read grant.
		Expect(env.Service.Revoke(env.ctx, ownerSess, thing.Subject(),
			access.ForObject(reader.ID), access.PermRead, access.Deny)).To(Succeed())

		_, err = env.Service.GetProperty(env.ctx, session.New(reader.ID, nil), thing, "anything", false)
		Expect(errors.Is(err, world.ErrNotFound)).To(BeTrue(),
			"back to a plain missing property")
	})

	It("grants wizards blanket access through the player registry", func() {
		owner := mustCreate("Alice", world.CreateObjectParams{})
		wizardAvatar := mustCreate("Wizard", world.CreateObjectParams{})
		thing := mustCreate("locked chest", world.CreateObjectParams{OwnerID: ulidPtr(owner.ID)})

		now := time.Now().UTC()
		Expect(env.Players.Create(env.ctx, &auth.Player{
			ID:           ulid.Make(),
			Username:     "wizard",
			PasswordHash: "$argon2id$test",
			AvatarID:     ulidPtr(wizardAvatar.ID),
			Wizard:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})).To(Succeed())

		_, err := env.Service.SetProperty(env.ctx, session.New(wizardAvatar.ID, nil), thing, world.SetPropertyParams{
			Name: "combination", Value: strValue("12-34-56"), Type: world.PropertyString,
		})
		Expect(err).NotTo(HaveOccurred(), "wizards/anything default applies")
	})

	It("requires grant to delegate a capability", func() {
		alice := mustCreate("Alice", world.CreateObjectParams{})
		bob := mustCreate("Bob", world.CreateObjectParams{})
		parent := mustCreate("generic container", world.CreateObjectParams{OwnerID: ulidPtr(bob.ID)})
		child := mustCreate("satchel", world.CreateObjectParams{OwnerID: ulidPtr(alice.ID)})

		aliceSess := session.New(alice.ID, nil)
		err := env.Service.AddParent(env.ctx, aliceSess, child, parent.ID, 0)
		Expect(errors.Is(err, world.ErrPermissionDenied)).To(BeTrue(),
			"derive on the parent is not granted to Alice")

		// Bob owns the parent, so he holds the implicit grant capability.
		Expect(env.Service.Allow(env.ctx, session.New(bob.ID, nil), parent.Subject(),
			access.ForObject(alice.ID), access.PermDerive)).To(Succeed())

		Expect(env.Service.AddParent(env.ctx, aliceSess, child, parent.ID, 0)).To(Succeed())
	})
})

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

//go:build integration

package world_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/bubblehouse/gomoo/internal/world"
)

var _ = Describe("Prototype inheritance", func() {
	BeforeEach(func() {
		resetWorld(env.ctx, env.pool)
	})

	It("resolves inherited properties through the relationship graph", func() {
		parent := mustCreate("room class", world.CreateObjectParams{})
		child := mustCreate("The Laboratory", world.CreateObjectParams{})

		_, err := env.Service.SetProperty(env.ctx, nil, parent, world.SetPropertyParams{
			Name:      "description",
			Value:     strValue("nondescript"),
			Type:      world.PropertyString,
			Inherited: true,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Service.AddParent(env.ctx, nil, child, parent.ID, 0)).To(Succeed())

		// The edge insert copies the inherited definition onto the child.
		local, err := env.Properties.GetByOrigin(env.ctx, child.ID, "description")
		Expect(err).NotTo(HaveOccurred())
		Expect(*local.Value).To(Equal("nondescript"))
		Expect(local.Inherited).To(BeTrue())

		// And a resolver walk from the child still finds a definition.
		resolved, err := env.Resolver.Property(env.ctx, child, "description", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(*resolved.Value).To(Equal("nondescript"))
	})

	It("keeps a shadowing value when the parent edge arrives later", func() {
		parent := mustCreate("decoration class", world.CreateObjectParams{})
		child := mustCreate("vase", world.CreateObjectParams{})

		_, err := env.Service.SetProperty(env.ctx, nil, parent, world.SetPropertyParams{
			Name:      "finish",
			Value:     strValue("plain"),
			Type:      world.PropertyString,
			Inherited: true,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Service.SetProperty(env.ctx, nil, child, world.SetPropertyParams{
			Name:  "finish",
			Value: strValue("hand painted"),
			Type:  world.PropertyString,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Service.AddParent(env.ctx, nil, child, parent.ID, 0)).To(Succeed())

		local, err := env.Properties.GetByOrigin(env.ctx, child.ID, "finish")
		Expect(err).NotTo(HaveOccurred())
		Expect(*local.Value).To(Equal("hand painted"), "shadow keeps its value")
		Expect(local.Inherited).To(BeTrue(), "shadow adopts the inherited flag")
	})

	It("walks parents depth-first in edge weight order", func() {
		heavy := mustCreate("heavy parent", world.CreateObjectParams{})
		light := mustCreate("light parent", world.CreateObjectParams{})
		child := mustCreate("child", world.CreateObjectParams{})

		_, err := env.Service.SetProperty(env.ctx, nil, heavy, world.SetPropertyParams{
			Name: "color", Value: strValue("red"), Type: world.PropertyString,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = env.Service.SetProperty(env.ctx, nil, light, world.SetPropertyParams{
			Name: "color", Value: strValue("blue"), Type: world.PropertyString,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Service.AddParent(env.ctx, nil, child, heavy.ID, 5)).To(Succeed())
		Expect(env.Service.AddParent(env.ctx, nil, child, light.ID, 1)).To(Succeed())

		resolved, err := env.Resolver.Property(env.ctx, child, "color", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(*resolved.Value).To(Equal("blue"), "lowest weight wins")
	})

	It("rejects ancestry cycles", func() {
		a := mustCreate("a", world.CreateObjectParams{})
		b := mustCreate("b", world.CreateObjectParams{})

		Expect(env.Service.AddParent(env.ctx, nil, b, a.ID, 0)).To(Succeed())

		err := env.Service.AddParent(env.ctx, nil, a, b.ID, 0)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, world.ErrInvariantViolation)).To(BeTrue())
	})

	It("permits diamond ancestry", func() {
		top := mustCreate("top", world.CreateObjectParams{})
		left := mustCreate("left", world.CreateObjectParams{})
		right := mustCreate("right", world.CreateObjectParams{})
		bottom := mustCreate("bottom", world.CreateObjectParams{})

		Expect(env.Service.AddParent(env.ctx, nil, left, top.ID, 0)).To(Succeed())
		Expect(env.Service.AddParent(env.ctx, nil, right, top.ID, 0)).To(Succeed())
		Expect(env.Service.AddParent(env.ctx, nil, bottom, left.ID, 0)).To(Succeed())
		Expect(env.Service.AddParent(env.ctx, nil, bottom, right.ID, 1)).To(Succeed())

		ancestors, err := env.Resolver.Ancestors(env.ctx, bottom)
		Expect(err).NotTo(HaveOccurred())
		Expect(ancestors).To(HaveLen(3), "shared ancestor visited once")
	})

	It("finds verbs by abbreviated name across the ancestry", func() {
		parent := mustCreate("room class", world.CreateObjectParams{})
		child := mustCreate("The Laboratory", world.CreateObjectParams{})
		Expect(env.Service.AddParent(env.ctx, nil, child, parent.ID, 0)).To(Succeed())

		_, err := env.Service.AddVerb(env.ctx, nil, parent, world.AddVerbParams{
			Names:  []string{"l*ook", "gaze"},
			Code:   `write("a room")`,
			Method: true,
		})
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"look", "lo", "gaze"} {
			verb, err := env.Resolver.Verb(env.ctx, child, name, true)
			Expect(err).NotTo(HaveOccurred(), "name %q", name)
			Expect(verb.OriginID).To(Equal(parent.ID))
		}

		found, err := env.Resolver.HasVerb(env.ctx, child, "look", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse(), "no local definition without recursion")
	})

	It("propagates an inherited transition to existing descendants", func() {
		parent := mustCreate("class", world.CreateObjectParams{})
		child := mustCreate("instance", world.CreateObjectParams{})

		Expect(env.Service.AddParent(env.ctx, nil, child, parent.ID, 0)).To(Succeed())

		_, err := env.Service.SetProperty(env.ctx, nil, parent, world.SetPropertyParams{
			Name: "material", Value: strValue("stone"), Type: world.PropertyString,
		})
		Expect(err).NotTo(HaveOccurred())

		// Flipping inherited on pushes copies down the graph.
		_, err = env.Service.SetProperty(env.ctx, nil, parent, world.SetPropertyParams{
			Name: "material", Value: strValue("stone"), Type: world.PropertyString, Inherited: true,
		})
		Expect(err).NotTo(HaveOccurred())

		local, err := env.Properties.GetByOrigin(env.ctx, child.ID, "material")
		Expect(err).NotTo(HaveOccurred())
		Expect(*local.Value).To(Equal("stone"))
	})
})

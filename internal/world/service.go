// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/session"
)

// ErrPermissionDenied aliases the engine's sentinel so callers can test
// denials without importing access.
var ErrPermissionDenied = access.ErrPermissionDenied

// ErrNotMethod is returned when a verb is invoked programmatically but is
// not flagged as a method.
var ErrNotMethod = errors.New("verb is not a method")

// CapabilityChecker decides permission checks. Mirrors access.Engine so the
// world package is not coupled to a concrete engine.
type CapabilityChecker interface {
	IsAllowed(ctx context.Context, actor access.Actor, permission string, subject access.Subject, fatal bool) (bool, error)
	Check(ctx context.Context, actor access.Actor, permission string, subject access.Subject) error
}

// VerbInvoker executes a verb body. The script host implements this; the
// Service brackets every invocation with a session push/pop pair.
type VerbInvoker interface {
	Invoke(ctx context.Context, sess *session.Context, verb *Verb, args []string) error
}

// ServiceConfig holds dependencies for the world Service.
type ServiceConfig struct {
	ObjectRepo   ObjectRepository
	PropertyRepo PropertyRepository
	VerbRepo     VerbRepository
	RuleRepo     access.RuleRepository
	Checker      CapabilityChecker
	Transactor   Transactor
	Invoker      VerbInvoker
	Logger       *slog.Logger
}

// Service is the write path of the object model. Every mutator enforces
// capability checks against the session's effective caller before touching
// storage, and multi-entity writes run inside one transaction.
//
// A nil session means bootstrap/maintenance code with no one acting;
// permission checks are skipped, matching the behavior of world
// initialization before any player exists.
type Service struct {
	objects    ObjectRepository
	properties PropertyRepository
	verbs      VerbRepository
	rules      access.RuleRepository
	checker    CapabilityChecker
	tx         Transactor
	invoker    VerbInvoker
	resolver   *Resolver
	logger     *slog.Logger
}

// NewService creates a Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		objects:    cfg.ObjectRepo,
		properties: cfg.PropertyRepo,
		verbs:      cfg.VerbRepo,
		rules:      cfg.RuleRepo,
		checker:    cfg.Checker,
		tx:         cfg.Transactor,
		invoker:    cfg.Invoker,
		resolver:   NewResolver(cfg.ObjectRepo, cfg.PropertyRepo, cfg.VerbRepo),
		logger:     logger,
	}
}

// Resolver exposes the read-side inheritance resolver.
func (s *Service) Resolver() *Resolver { return s.resolver }

// canCaller enforces permission for the session's effective caller on
// subject. Outside any session there is no caller and no check.
func (s *Service) canCaller(ctx context.Context, sess *session.Context, permission string, subject access.Subject) error {
	if !sess.Active() {
		return nil
	}
	caller, err := s.objects.Get(ctx, sess.Caller())
	if err != nil {
		return oops.In("world").Code("CALLER_NOT_FOUND").With("caller_id", sess.Caller().String()).Wrap(err)
	}
	return s.checker.Check(ctx, caller.Actor(), permission, subject)
}

// CreateObjectParams configures object creation.
type CreateObjectParams struct {
	Name       string
	UniqueName bool
	Obvious    bool
	OwnerID    *ulid.ULID
	LocationID *ulid.ULID
	ParentIDs  []ulid.ULID
	Aliases    []string
}

// CreateObject creates an object with its default ACL and initial parent
// edges in one transaction. Owner defaults to the effective caller;
// location defaults to the owner's location. No other actor can observe the
// object before its default rules exist.
func (s *Service) CreateObject(ctx context.Context, sess *session.Context, params CreateObjectParams) (*Object, error) {
	if err := ValidateName(params.Name); err != nil {
		return nil, err
	}
	if err := ValidateAliases(params.Aliases); err != nil {
		return nil, err
	}

	obj := &Object{
		ID:         ulid.Make(),
		Name:       params.Name,
		UniqueName: params.UniqueName,
		Obvious:    params.Obvious,
		OwnerID:    params.OwnerID,
		LocationID: params.LocationID,
		Aliases:    params.Aliases,
	}
	if obj.OwnerID == nil && sess.Active() {
		caller := sess.Caller()
		obj.OwnerID = &caller
	}
	if obj.LocationID == nil && obj.OwnerID != nil {
		owner, err := s.objects.Get(ctx, *obj.OwnerID)
		if err == nil {
			obj.LocationID = owner.LocationID
		} else if !isNotFound(err) {
			return nil, err
		}
	}

	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.objects.Create(ctx, obj); err != nil {
			return err
		}
		if err := access.ApplyDefaults(ctx, s.rules, obj.Subject()); err != nil {
			return err
		}
		for i, parentID := range params.ParentIDs {
			if err := s.addParentLocked(ctx, sess, obj, parentID, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("object created",
		"object_id", obj.ID.String(),
		"name", obj.Name)
	return obj, nil
}

// GetObject retrieves an object after checking read authorization.
func (s *Service) GetObject(ctx context.Context, sess *session.Context, id ulid.ULID) (*Object, error) {
	obj, err := s.objects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canCaller(ctx, sess, access.PermRead, obj.Subject()); err != nil {
		return nil, err
	}
	return obj, nil
}

// FindContents returns objects inside container matching name or alias,
// after a read check on the container.
func (s *Service) FindContents(ctx context.Context, sess *session.Context, container *Object, name string) ([]*Object, error) {
	if err := s.canCaller(ctx, sess, access.PermRead, container.Subject()); err != nil {
		return nil, err
	}
	return s.objects.FindContents(ctx, container.ID, name)
}

// MoveObject relocates obj, requiring the move capability on it.
// Containment is orthogonal to inheritance; no propagation occurs.
func (s *Service) MoveObject(ctx context.Context, sess *session.Context, obj *Object, destinationID *ulid.ULID) error {
	if err := s.canCaller(ctx, sess, access.PermMove, obj.Subject()); err != nil {
		return err
	}
	obj.LocationID = destinationID
	if err := s.objects.Update(ctx, obj); err != nil {
		return oops.Wrapf(err, "move object %s", obj.ID)
	}
	return nil
}

// AddParent inserts a parent edge, requiring derive on the parent and
// transmute on the child, rejecting edges that would create a cycle, and
// synchronously copying the parent's inherited properties onto the child —
// all in one transaction.
func (s *Service) AddParent(ctx context.Context, sess *session.Context, child *Object, parentID ulid.ULID, weight int) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		return s.addParentLocked(ctx, sess, child, parentID, weight)
	})
}

// addParentLocked does the guarded edge insertion; the caller supplies the
// transaction.
func (s *Service) addParentLocked(ctx context.Context, sess *session.Context, child *Object, parentID ulid.ULID, weight int) error {
	parent, err := s.objects.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if err := s.canCaller(ctx, sess, access.PermTransmute, child.Subject()); err != nil {
		return err
	}
	if err := s.canCaller(ctx, sess, access.PermDerive, parent.Subject()); err != nil {
		return err
	}
	if err := s.checkAcyclic(ctx, child, parent); err != nil {
		return err
	}
	if err := s.objects.AddParent(ctx, Relationship{ChildID: child.ID, ParentID: parentID, Weight: weight}); err != nil {
		return err
	}
	return s.OnParentAdded(ctx, child, parent)
}

// RemoveParent deletes a parent edge under the same guards as AddParent.
// Properties already copied to the child are left in place: the child keeps
// what it inherited.
func (s *Service) RemoveParent(ctx context.Context, sess *session.Context, child *Object, parentID ulid.ULID) error {
	parent, err := s.objects.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if err := s.canCaller(ctx, sess, access.PermTransmute, child.Subject()); err != nil {
		return err
	}
	if err := s.canCaller(ctx, sess, access.PermDerive, parent.Subject()); err != nil {
		return err
	}
	return s.objects.RemoveParent(ctx, child.ID, parentID)
}

// checkAcyclic rejects a child→parent edge that would put child in its own
// ancestor set. Cycle creation is refused at mutation time rather than
// tolerated at walk time.
func (s *Service) checkAcyclic(ctx context.Context, child, parent *Object) error {
	if child.ID == parent.ID {
		return oops.In("world").
			Code("ANCESTRY_CYCLE").
			With("object_id", child.ID.String()).
			Wrapf(ErrInvariantViolation, "object cannot be its own parent")
	}
	ancestors, err := s.resolver.Ancestors(ctx, parent)
	if err != nil {
		return err
	}
	for _, a := range ancestors {
		if a.ID == child.ID {
			return oops.In("world").
				Code("ANCESTRY_CYCLE").
				With("child_id", child.ID.String()).
				With("parent_id", parent.ID.String()).
				Wrapf(ErrInvariantViolation, "adding parent %s would create a cycle", parent.ID)
		}
	}
	return nil
}

// OnParentAdded copies the parent's inherited properties onto the child.
// A property the child already defines keeps its value but adopts the
// inherited flag and the child's ownership; a new copy takes the parent's
// value and type. New copies get the default ACL. Invoked synchronously by
// the mutators, inside their transaction.
func (s *Service) OnParentAdded(ctx context.Context, child, parent *Object) error {
	inherited, err := s.properties.ListInherited(ctx, parent.ID)
	if err != nil {
		return err
	}
	for _, prop := range inherited {
		if err := s.copyPropertyTo(ctx, child, prop); err != nil {
			return err
		}
	}
	return nil
}

// copyPropertyTo upserts an inherited copy of prop onto child.
func (s *Service) copyPropertyTo(ctx context.Context, child *Object, prop *Property) error {
	copyProp := &Property{
		ID:        ulid.Make(),
		OriginID:  child.ID,
		Name:      prop.Name,
		OwnerID:   child.OwnerID,
		Inherited: prop.Inherited,
	}
	existing, err := s.properties.GetByOrigin(ctx, child.ID, prop.Name)
	switch {
	case err == nil:
		// Shadowing copy exists: keep its value and type.
		copyProp.ID = existing.ID
		copyProp.Value = existing.Value
		copyProp.Type = existing.Type
	case isNotFound(err):
		copyProp.Value = prop.Value
		copyProp.Type = prop.Type
	default:
		return err
	}
	created, err := s.properties.Upsert(ctx, copyProp)
	if err != nil {
		return err
	}
	if created {
		if err := access.ApplyDefaults(ctx, s.rules, copyProp.Subject()); err != nil {
			return err
		}
	}
	return nil
}

// SetPropertyParams configures a property write.
type SetPropertyParams struct {
	Name      string
	Value     *string
	Type      PropertyType
	Inherited bool
	OwnerID   *ulid.ULID
}

// SetProperty creates or replaces the (obj, name) property definition,
// requiring write on the object. The owner defaults to the effective
// caller, then to the object itself. A false→true inherited transition
// pushes copies to every current descendant in the same transaction.
func (s *Service) SetProperty(ctx context.Context, sess *session.Context, obj *Object, params SetPropertyParams) (*Property, error) {
	if err := ValidateName(params.Name); err != nil {
		return nil, err
	}
	if err := s.canCaller(ctx, sess, access.PermWrite, obj.Subject()); err != nil {
		return nil, err
	}

	ownerID := params.OwnerID
	if ownerID == nil {
		if sess.Active() {
			caller := sess.Caller()
			ownerID = &caller
		} else {
			ownerID = &obj.ID
		}
	}
	propType := params.Type
	if propType == "" {
		propType = PropertyString
	}

	prop := &Property{
		ID:        ulid.Make(),
		OriginID:  obj.ID,
		Name:      params.Name,
		Value:     params.Value,
		Type:      propType,
		OwnerID:   ownerID,
		Inherited: params.Inherited,
	}

	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		wasInherited := false
		if existing, gerr := s.properties.GetByOrigin(ctx, obj.ID, params.Name); gerr == nil {
			wasInherited = existing.Inherited
		} else if !isNotFound(gerr) {
			return gerr
		}

		created, uerr := s.properties.Upsert(ctx, prop)
		if uerr != nil {
			return uerr
		}
		if created {
			if aerr := access.ApplyDefaults(ctx, s.rules, prop.Subject()); aerr != nil {
				return aerr
			}
		}

		if prop.Inherited && !wasInherited {
			return s.propagateToDescendants(ctx, obj, prop)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// propagateToDescendants pushes an inherited property to every current
// descendant of origin.
func (s *Service) propagateToDescendants(ctx context.Context, origin *Object, prop *Property) error {
	descendants, err := s.resolver.Descendants(ctx, origin)
	if err != nil {
		return err
	}
	for _, child := range descendants {
		if err := s.copyPropertyTo(ctx, child, prop); err != nil {
			return err
		}
	}
	return nil
}

// GetProperty resolves name on obj through inheritance, requiring read on
// the object and on the resolved property. A denied property is reported as
// a permission error, distinguishable from NotFound.
func (s *Service) GetProperty(ctx context.Context, sess *session.Context, obj *Object, name string, recurse bool) (*Property, error) {
	if err := s.canCaller(ctx, sess, access.PermRead, obj.Subject()); err != nil {
		return nil, err
	}
	prop, err := s.resolver.Property(ctx, obj, name, recurse)
	if err != nil {
		return nil, err
	}
	if err := s.canCaller(ctx, sess, access.PermRead, prop.Subject()); err != nil {
		return nil, err
	}
	return prop, nil
}

// AddVerbParams configures verb creation.
type AddVerbParams struct {
	Names   []string
	Code    string
	Ability bool
	Method  bool
	OwnerID *ulid.ULID
}

// AddVerb attaches a verb to obj, requiring write on the object. The verb
// and its default ACL are created in one transaction. The owner defaults to
// the effective caller, then to the object itself.
func (s *Service) AddVerb(ctx context.Context, sess *session.Context, obj *Object, params AddVerbParams) (*Verb, error) {
	if err := ValidateVerbNames(params.Names); err != nil {
		return nil, err
	}
	if err := s.canCaller(ctx, sess, access.PermWrite, obj.Subject()); err != nil {
		return nil, err
	}

	ownerID := params.OwnerID
	if ownerID == nil {
		if sess.Active() {
			caller := sess.Caller()
			ownerID = &caller
		} else {
			ownerID = &obj.ID
		}
	}

	verb := &Verb{
		ID:       ulid.Make(),
		OriginID: obj.ID,
		Names:    params.Names,
		Code:     params.Code,
		OwnerID:  ownerID,
		Ability:  params.Ability,
		Method:   params.Method,
	}
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.verbs.Create(ctx, verb); err != nil {
			return err
		}
		return access.ApplyDefaults(ctx, s.rules, verb.Subject())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("verb added",
		"verb_id", verb.ID.String(),
		"origin_id", obj.ID.String(),
		"name", verb.Name())
	return verb, nil
}

// Allow appends an allow rule for who on subject. Requires grant on the
// subject; owners hold grant implicitly.
func (s *Service) Allow(ctx context.Context, sess *session.Context, subject access.Subject, who access.ActorRef, permission string) error {
	return s.addRule(ctx, sess, subject, who, permission, access.Allow)
}

// Deny appends a deny rule for who on subject. Requires grant on the
// subject. A deny overrides any allow for the same permission.
func (s *Service) Deny(ctx context.Context, sess *session.Context, subject access.Subject, who access.ActorRef, permission string) error {
	return s.addRule(ctx, sess, subject, who, permission, access.Deny)
}

// Revoke removes rules matching (subject, who, permission, effect).
func (s *Service) Revoke(ctx context.Context, sess *session.Context, subject access.Subject, who access.ActorRef, permission string, effect access.RuleEffect) error {
	if err := s.canCaller(ctx, sess, access.PermGrant, subject); err != nil {
		return err
	}
	_, err := s.rules.Delete(ctx, access.Rule{
		Subject:    subject,
		Effect:     effect,
		Permission: permission,
		Type:       who.Type(),
		AccessorID: who.AccessorID,
		Group:      who.Group,
	})
	return err
}

func (s *Service) addRule(ctx context.Context, sess *session.Context, subject access.Subject, who access.ActorRef, permission string, effect access.RuleEffect) error {
	if !access.ValidPermission(permission) {
		return oops.In("world").
			Code("UNKNOWN_PERMISSION").
			With("permission", permission).
			Errorf("unknown permission %q", permission)
	}
	if !who.Valid() {
		return oops.In("world").
			Code("INVALID_ACTOR_REF").
			Errorf("rule must name exactly one accessor or a known group")
	}
	if err := s.canCaller(ctx, sess, access.PermGrant, subject); err != nil {
		return err
	}
	return s.rules.Create(ctx, &access.Rule{
		Subject:    subject,
		Effect:     effect,
		Permission: permission,
		Type:       who.Type(),
		AccessorID: who.AccessorID,
		Group:      who.Group,
	})
}

// InvokeOptions configures verb invocation.
type InvokeOptions struct {
	// FromCommand marks the command-dispatch path, which may reach
	// non-method verbs. Programmatic calls require Method.
	FromCommand bool
	// Elevate runs the verb with the verb owner's authority instead of
	// the session's. Ordinary calls leave the effective caller untouched.
	Elevate bool
}

// InvokeVerb resolves name on obj, authorizes execution, and runs the verb
// body inside a context frame. The frame is popped on every exit path, so
// the effective-caller restoration invariant holds even when the body
// fails.
func (s *Service) InvokeVerb(ctx context.Context, sess *session.Context, obj *Object, name string, args []string, opts InvokeOptions) error {
	verb, err := s.resolver.Verb(ctx, obj, name, true)
	if err != nil {
		if isNotFound(err) {
			recordInvocation(StatusNotFound)
		}
		return err
	}

	if !opts.FromCommand && !verb.Method {
		recordInvocation(StatusPermissionDenied)
		return oops.In("world").
			Code("NOT_A_METHOD").
			With("verb_id", verb.ID.String()).
			With("name", name).
			Wrapf(ErrNotMethod, "%s is not a method", verb.Annotated())
	}
	if verb.Ability && (!sess.Active() || sess.Caller() != verb.OriginID) {
		recordInvocation(StatusPermissionDenied)
		return oops.In("world").
			Code("ABILITY_NOT_OWN").
			With("verb_id", verb.ID.String()).
			With("origin_id", verb.OriginID.String()).
			Wrapf(ErrPermissionDenied, "%s is an intrinsic ability of %s", verb.Annotated(), verb.OriginID)
	}
	if err := s.canCaller(ctx, sess, access.PermExecute, verb.Subject()); err != nil {
		recordInvocation(StatusPermissionDenied)
		return err
	}
	if s.invoker == nil {
		return oops.In("world").Code("NO_INVOKER").Errorf("no verb invoker configured")
	}

	// Stack tracking only applies inside a session; bootstrap invocations
	// run with no acting authority and no frames.
	if sess.Active() {
		frame := session.Frame{
			This:     obj.ID,
			VerbName: name,
			Origin:   verb.OriginID,
		}
		if opts.Elevate {
			if verb.OwnerID == nil {
				return oops.In("world").
					Code("ELEVATE_UNOWNED").
					With("verb_id", verb.ID.String()).
					Wrapf(ErrPermissionDenied, "cannot elevate to an unowned verb")
			}
			frame.Caller = *verb.OwnerID
		}
		sess.Push(frame, opts.Elevate)
		defer func() {
			if perr := sess.Pop(); perr != nil {
				// Unbalanced pop is a programming error; surface loudly.
				s.logger.Error("context stack corrupted", "error", perr)
			}
		}()
	}

	if err := s.invoker.Invoke(ctx, sess, verb, args); err != nil {
		recordInvocation(StatusError)
		return oops.In("world").
			Code("VERB_FAILED").
			With("verb_id", verb.ID.String()).
			With("name", name).
			Wrap(err)
	}
	recordInvocation(StatusSuccess)
	return nil
}

// Package mixin provides reusable schema components for Zen.
//
// Mixins allow sharing common fields, edges, hooks, and policies across
// multiple entity schemas. This promotes code reuse and consistency.
//
// # Built-in Mixins
//
// The package provides several ready-to-use mixins:
//
//	// ID mixin: Adds auto-incrementing integer ID
//	mixin.ID{}
//
//	// Time mixin: Adds created_at and updated_at timestamps
//	mixin.Time{}
//
//	// SoftDelete mixin: Adds deleted_at for soft deletes
//	mixin.SoftDelete{}
//
//	// TenantID mixin: Adds tenant_id for multi-tenancy
//	mixin.TenantID{}
//
//	// TimeSoftDelete: Combines Time and SoftDelete
//	mixin.TimeSoftDelete{}
//
// # Using Mixins
//
// Mixins are applied to schemas via the Mixin() method:
//
//	type User struct{ zen.Schema }
//
//	func (User) Mixin() []zen.Mixin {
//	    return []zen.Mixin{
//	        mixin.ID{},
//	        mixin.Time{},
//	    }
//	}
//
// The resulting User entity will have:
//   - id (int64, auto-increment, primary key)
//   - created_at (time.Time, immutable)
//   - updated_at (time.Time, auto-updated)
//
// # Creating Custom Mixins
//
// Custom mixins implement the zen.Mixin interface:
//
//	type AuditMixin struct {
//	    zen.Mixin
//	}
//
//	func (AuditMixin) Fields() []zen.Field {
//	    return []zen.Field{
//	        field.String("created_by"),
//	        field.String("updated_by").Optional(),
//	    }
//	}
//
//	func (AuditMixin) Hooks() []zen.Hook {
//	    return []zen.Hook{
//	        // Hook to set created_by/updated_by from context
//	    }
//	}
//
// # Mixin Order
//
// Mixins are applied in the order they are listed. Later mixins can
// override fields from earlier mixins if they have the same name.
//
//	func (User) Mixin() []zen.Mixin {
//	    return []zen.Mixin{
//	        BaseMixin{},      // Applied first
//	        AuditMixin{},     // Applied second
//	        TenantMixin{},    // Applied third
//	    }
//	}
//
// # Mixin Features
//
// Mixins can provide:
//
//   - Fields: Common fields shared across entities
//   - Edges: Common relationships
//   - Indexes: Common database indexes
//   - Hooks: Mutation hooks (before/after create, update, delete)
//   - Interceptors: Query interceptors
//   - Policy: Privacy/authorization rules
//   - Annotations: Custom annotations for generators
//
// # ID Mixin
//
// The ID mixin adds a standard integer primary key:
//
//	type ID struct{ zen.Mixin }
//
//	func (ID) Fields() []zen.Field {
//	    return []zen.Field{
//	        field.Int64("id").
//	            Unique().
//	            Immutable(),
//	    }
//	}
//
// # Time Mixin
//
// The Time mixin adds timestamp tracking:
//
//	type Time struct{ zen.Mixin }
//
//	func (Time) Fields() []zen.Field {
//	    return []zen.Field{
//	        field.Time("created_at").
//	            Default(time.Now).
//	            Immutable(),
//	        field.Time("updated_at").
//	            Default(time.Now).
//	            UpdateDefault(time.Now),
//	    }
//	}
//
// # SoftDelete Mixin
//
// The SoftDelete mixin enables soft deletion:
//
//	type SoftDelete struct{ zen.Mixin }
//
//	func (SoftDelete) Fields() []zen.Field {
//	    return []zen.Field{
//	        field.Time("deleted_at").
//	            Optional().
//	            Nillable(),
//	    }
//	}
//
// # TenantID Mixin
//
// The TenantID mixin enables multi-tenant isolation:
//
//	type TenantID struct{ zen.Mixin }
//
//	func (TenantID) Fields() []zen.Field {
//	    return []zen.Field{
//	        field.String("tenant_id").
//	            Immutable(),
//	    }
//	}
//
//	func (TenantID) Policy() zen.Policy {
//	    return policy.Policy(
//	        policy.Query(privacy.TenantRule("tenant_id")),
//	        policy.Mutation(privacy.TenantRule("tenant_id")),
//	    )
//	}
package mixin

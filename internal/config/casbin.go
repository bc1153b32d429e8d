// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package config

// defaultCasbinModel is the RBAC model for the control API's admin routes:
// a single "operator" role gates every /api/v1/admin/* mutation. Kept
// inline rather than an embedded file, since the control API has exactly
// one policy shape and no per-deployment customization need.
const defaultCasbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act
`

// defaultCasbinPolicy grants the operator role every admin mutation route.
const defaultCasbinPolicy = `
p, operator, /api/v1/admin/*, POST
g, operator, operator
`

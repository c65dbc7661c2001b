package typedefs

import _ "embed"

// Fragment names. They double as the payload file stems under payload/.
const (
	FragmentBase         = "base"
	FragmentEntityCommon = "entity-common"
	FragmentCharacter    = "character"
	FragmentProjectile   = "projectile"
	FragmentGameObject   = "game-object"
	FragmentAssist       = "assist"
	FragmentSharedCommon = "shared-common"
)

//go:embed payload/base.d.ts
var basePayload string

//go:embed payload/entity-common.d.ts
var entityCommonPayload string

//go:embed payload/character.d.ts
var characterPayload string

//go:embed payload/projectile.d.ts
var projectilePayload string

//go:embed payload/game-object.d.ts
var gameObjectPayload string

//go:embed payload/assist.d.ts
var assistPayload string

//go:embed payload/shared-common.d.ts
var sharedCommonPayload string

var payloads = map[string]string{
	FragmentBase:         basePayload,
	FragmentEntityCommon: entityCommonPayload,
	FragmentCharacter:    characterPayload,
	FragmentProjectile:   projectilePayload,
	FragmentGameObject:   gameObjectPayload,
	FragmentAssist:       assistPayload,
	FragmentSharedCommon: sharedCommonPayload,
}

// groups lists the category fragments appended after the ambient
// declarations. Categories without an entry get none.
var groups = map[ObjectType][]string{
	ObjectTypeCharacter:        {FragmentEntityCommon, FragmentCharacter, FragmentSharedCommon},
	ObjectTypeProjectile:       {FragmentEntityCommon, FragmentProjectile, FragmentSharedCommon},
	ObjectTypeCustomGameObject: {FragmentEntityCommon, FragmentGameObject, FragmentSharedCommon},
	ObjectTypeAssist:           {FragmentEntityCommon, FragmentAssist, FragmentSharedCommon},
}

// Payload returns the embedded declaration text for a fragment name.
func Payload(name string) (string, bool) {
	p, ok := payloads[name]
	return p, ok
}

// FragmentGroup returns the category fragment names for t, in emit order.
func FragmentGroup(t ObjectType) []string {
	g := groups[t]
	out := make([]string, len(g))
	copy(out, g)
	return out
}

// FragmentNames lists every embedded fragment, base first.
func FragmentNames() []string {
	return []string{
		FragmentBase,
		FragmentEntityCommon,
		FragmentCharacter,
		FragmentProjectile,
		FragmentGameObject,
		FragmentAssist,
		FragmentSharedCommon,
	}
}

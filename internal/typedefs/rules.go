package typedefs

import "sort"

// Rule maps an object type to the ambient variables its scripts can see.
type Rule struct {
	ObjectType  ObjectType `json:"objectType" yaml:"objectType"`
	ClassName   string     `json:"className" yaml:"className"`
	NeedsSelf   bool       `json:"needsSelf" yaml:"needsSelf"`
	NeedsMatch  bool       `json:"needsMatch" yaml:"needsMatch"`
	NeedsCamera bool       `json:"needsCamera" yaml:"needsCamera"`
	NeedsStage  bool       `json:"needsStage" yaml:"needsStage"`
}

// NONE and ENTITY have no entry: an asset declaring either resolves like
// one declaring nothing, so only the script.hx heuristic can give it
// ambient variables.
var rules = map[ObjectType]Rule{
	ObjectTypeCharacter:            everything(ObjectTypeCharacter, "Character"),
	ObjectTypeProjectile:           everything(ObjectTypeProjectile, "Projectile"),
	ObjectTypeAssist:               everything(ObjectTypeAssist, "Assist"),
	ObjectTypeCustomGameObject:     everything(ObjectTypeCustomGameObject, "CustomGameObject"),
	ObjectTypeCollisionArea:        everything(ObjectTypeCollisionArea, "CollisionArea"),
	ObjectTypeRectCollisionArea:    everything(ObjectTypeRectCollisionArea, "RectCollisionArea"),
	ObjectTypeRectStructure:        everything(ObjectTypeRectStructure, "RectStructure"),
	ObjectTypeLineSegmentStructure: everything(ObjectTypeLineSegmentStructure, "LineSegmentStructure"),
	ObjectTypeMatchRules:           everything(ObjectTypeMatchRules, "MatchRules"),
	// A stage script is the stage; declaring stage again would shadow self.
	ObjectTypeStage: {
		ObjectType:  ObjectTypeStage,
		ClassName:   "Stage",
		NeedsSelf:   true,
		NeedsMatch:  true,
		NeedsCamera: true,
	},
}

func everything(t ObjectType, className string) Rule {
	return Rule{
		ObjectType:  t,
		ClassName:   className,
		NeedsSelf:   true,
		NeedsMatch:  true,
		NeedsCamera: true,
		NeedsStage:  true,
	}
}

// entityFallback is used for files that look like entity scripts but whose
// asset declares no usable object type.
var entityFallback = everything(ObjectTypeEntity, "Entity")

// LookupRule returns the rule registered for t.
func LookupRule(t ObjectType) (Rule, bool) {
	r, ok := rules[t]
	return r, ok
}

// Rules returns a copy of the rule table ordered by object type.
func Rules() []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectType < out[j].ObjectType })
	return out
}

// Package typedefs selects the hscript declaration fragments a script
// receives, based on where the script lives and what kind of game object
// it is attached to.
package typedefs

// ObjectType is the object category an asset declares in its metadata.
type ObjectType string

const (
	ObjectTypeNone                 ObjectType = "NONE"
	ObjectTypeEntity               ObjectType = "ENTITY"
	ObjectTypeCharacter            ObjectType = "CHARACTER"
	ObjectTypeProjectile           ObjectType = "PROJECTILE"
	ObjectTypeAssist               ObjectType = "ASSIST"
	ObjectTypeCustomGameObject     ObjectType = "CUSTOM_GAME_OBJECT"
	ObjectTypeStage                ObjectType = "STAGE"
	ObjectTypeCollisionArea        ObjectType = "COLLISION_AREA"
	ObjectTypeRectCollisionArea    ObjectType = "RECT_COLLISION_AREA"
	ObjectTypeRectStructure        ObjectType = "RECT_STRUCTURE"
	ObjectTypeLineSegmentStructure ObjectType = "LINE_SEGMENT_STRUCTURE"
	ObjectTypeMatchRules           ObjectType = "MATCH_RULES"
)

// ObjectTypes lists every known object type in declaration order.
var ObjectTypes = []ObjectType{
	ObjectTypeNone,
	ObjectTypeEntity,
	ObjectTypeCharacter,
	ObjectTypeProjectile,
	ObjectTypeAssist,
	ObjectTypeCustomGameObject,
	ObjectTypeStage,
	ObjectTypeCollisionArea,
	ObjectTypeRectCollisionArea,
	ObjectTypeRectStructure,
	ObjectTypeLineSegmentStructure,
	ObjectTypeMatchRules,
}

// ParseObjectType matches s against the known object types. The match is
// exact: "character" is not CHARACTER.
func ParseObjectType(s string) (ObjectType, bool) {
	for _, t := range ObjectTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func (t ObjectType) String() string { return string(t) }

package scene

import (
	"github.com/guanlun/psan1-rendering-engine/physics"
	"github.com/guanlun/psan1-rendering-engine/types"
)

// Collider copies the pose of a rigid body into the transform of the object
// that owns it. The body itself belongs to the physics world.
type Collider struct {
	body      *physics.RigidBody
	transform *Transform
	scale     types.Vec3
}

// Get the rigid body driving this collider.
func (c *Collider) RigidBody() *physics.RigidBody {
	return c.body
}

// Overwrite the owner's transform with the current body pose.
func (c *Collider) Step() {
	pos, rot := c.body.Pose()
	c.transform.Set(types.TRS(pos, rot, c.scale))
}

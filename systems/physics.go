package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/config"
)

// Collision is a contact-start event between two entities. The order of A
// and B carries no meaning.
type Collision struct {
	A, B ecs.Entity
}

// Kinematics is a headless point-mass integrator. It owns Position, Velocity
// and Rotation; cells influence it only through their Force component.
type Kinematics struct {
	cells  *ecs.Filter4[components.Position, components.Velocity, components.Rotation, components.Force]
	shots  *ecs.Filter3[components.Position, components.Velocity, components.Projectile]
	food   *ecs.Filter2[components.Position, components.Food]
	posMap *ecs.Map[components.Position]

	grid      *SpatialGrid
	neighbors []Neighbor
	events    []Collision

	damping    float64
	contactR   float32
	halfWidth  float32
	halfHeight float32
}

// NewKinematics creates the integrator for a world.
func NewKinematics(w *ecs.World, cfg *config.Config) *Kinematics {
	return &Kinematics{
		cells:      ecs.NewFilter4[components.Position, components.Velocity, components.Rotation, components.Force](w),
		shots:      ecs.NewFilter3[components.Position, components.Velocity, components.Projectile](w),
		food:       ecs.NewFilter2[components.Position, components.Food](w),
		posMap:     ecs.NewMap[components.Position](w),
		grid:       NewSpatialGrid(float32(cfg.World.Width), float32(cfg.World.Height), float32(cfg.Physics.GridCellSize)),
		neighbors:  make([]Neighbor, 0, 16),
		damping:    cfg.Physics.LinearDamping,
		contactR:   cfg.Derived.CollisionR,
		halfWidth:  cfg.Derived.HalfWidth,
		halfHeight: cfg.Derived.HalfHeight,
	}
}

// Step advances all bodies by dt and returns projectile-food contacts. The
// returned slice is reused by the next call.
func (k *Kinematics) Step(dt float32) []Collision {
	drag := float32(math.Exp(-k.damping * float64(dt)))

	query := k.cells.Query()
	for query.Next() {
		pos, vel, rot, force := query.Get()

		vel.X = (vel.X + force.X*dt) * drag
		vel.Y = (vel.Y + force.Y*dt) * drag
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		k.confine(pos, vel)

		if force.Spin != 0 {
			rot.Heading = NormalizeAngle(rot.Heading + force.Spin)
			force.Spin = 0
		}
	}

	shots := k.shots.Query()
	for shots.Next() {
		pos, vel, _ := shots.Get()
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
	}

	return k.detect()
}

// confine keeps a body inside the world, stopping motion into the wall.
func (k *Kinematics) confine(pos *components.Position, vel *components.Velocity) {
	if pos.X < -k.halfWidth {
		pos.X, vel.X = -k.halfWidth, 0
	} else if pos.X > k.halfWidth {
		pos.X, vel.X = k.halfWidth, 0
	}
	if pos.Y < -k.halfHeight {
		pos.Y, vel.Y = -k.halfHeight, 0
	} else if pos.Y > k.halfHeight {
		pos.Y, vel.Y = k.halfHeight, 0
	}
}

// detect finds projectiles touching food.
func (k *Kinematics) detect() []Collision {
	k.events = k.events[:0]

	k.grid.Clear()
	food := k.food.Query()
	for food.Next() {
		pos, _ := food.Get()
		k.grid.Insert(food.Entity(), pos.X, pos.Y)
	}

	shots := k.shots.Query()
	for shots.Next() {
		shot := shots.Entity()
		pos, _, _ := shots.Get()
		k.neighbors = k.grid.QueryRadiusInto(k.neighbors[:0], pos.X, pos.Y, k.contactR, shot, k.posMap)
		for _, n := range k.neighbors {
			// Order by entity id; consumers must not rely on it.
			if shot.ID() < n.E.ID() {
				k.events = append(k.events, Collision{A: shot, B: n.E})
			} else {
				k.events = append(k.events, Collision{A: n.E, B: shot})
			}
		}
	}

	return k.events
}

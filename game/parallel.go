package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/neural"
	"github.com/pthm-cable/ava/systems"
)

// parallelThreshold is the minimum ready-cell count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// cellSnapshot captures read-only state for parallel processing.
type cellSnapshot struct {
	Entity    ecs.Entity
	ID        uint32
	Pos       components.Position
	Rot       components.Rotation
	LastFired float64
	Brain     *neural.Net
	Capture   bool // keep activations for the focused cell
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	Sensors     systems.Sensors
	Action      systems.Action
	Fitness     float32
	ForceX      float32
	ForceY      float32
	Spin        float32
	Activations [][]float64
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel decision computation.
type parallelState struct {
	snapshots  []cellSnapshot
	intents    []intent
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState() *parallelState {
	return &parallelState{
		numWorkers: runtime.GOMAXPROCS(0),
		snapshots:  make([]cellSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// updateDecisions runs the decision cycle for every ready cell.
func (g *Game) updateDecisions() {
	interval := g.cfg.Cell.UpdateInterval

	// Phase A: Build snapshots (single-threaded)
	g.parallel.snapshots = g.parallel.snapshots[:0]
	var manualReady bool

	query := g.cellFilter.Query()
	for query.Next() {
		pos, _, rot, _, cell := query.Get()

		if !g.heartbeat.Ready(g.now, cell.Phase) || g.now-cell.LastUpdated < interval {
			continue
		}
		if cell.Manual {
			manualReady = true
			continue
		}

		g.parallel.snapshots = append(g.parallel.snapshots, cellSnapshot{
			Entity:    query.Entity(),
			ID:        cell.ID,
			Pos:       *pos,
			Rot:       *rot,
			LastFired: cell.LastFired,
			Brain:     cell.Brain,
			Capture:   g.focus.active && g.focus.id == cell.ID,
		})
	}

	if manualReady {
		g.applyManual()
	}

	n := len(g.parallel.snapshots)
	if n == 0 {
		return
	}

	if cap(g.parallel.intents) < n {
		g.parallel.intents = make([]intent, n)
	}
	g.parallel.intents = g.parallel.intents[:n]

	// Phase B: Compute - choose single or parallel based on ready count
	if n < parallelThreshold {
		g.computeChunk(0, n)
	} else {
		g.computeParallel(n)
	}

	// Phase C: Apply intents (single-threaded, preserves determinism)
	g.applyIntents()
}

// computeParallel dispatches work to the worker pool.
func (g *Game) computeParallel(n int) {
	if !g.parallel.running {
		g.parallel.startWorkers(g)
	}

	numWorkers := g.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		g.parallel.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-g.parallel.doneChan
	}
}

// computeChunk evaluates controllers for a range of snapshots. It reads only
// the snapshot slice, the forage index and immutable config.
func (g *Game) computeChunk(i0, i1 int) {
	vision := float32(g.cfg.Cell.VisionRadius)
	thrust := float32(g.cfg.Cell.ThrustForce)
	spin := float32(g.cfg.Cell.SpinStrength)
	fireRate := g.cfg.Projectile.FireRate

	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		it := &g.parallel.intents[i]

		sensors := systems.Sense(g.forage, snap.Pos, snap.Rot, vision)
		layers := snap.Brain.Predict(sensors.Inputs())
		out := layers[len(layers)-1]

		action := g.policy.Decide(out, g.now-snap.LastFired >= fireRate)
		fx, fy, sp := systems.Actuation(action, snap.Rot.Heading, thrust, spin)

		*it = intent{
			Sensors: sensors,
			Action:  action,
			Fitness: g.policy.Fitness(sensors, action),
			ForceX:  fx,
			ForceY:  fy,
			Spin:    sp,
		}
		if snap.Capture {
			it.Activations = layers
		}
	}
}

// applyIntents writes computed results back to ECS components and launches
// projectiles.
func (g *Game) applyIntents() {
	for i := range g.parallel.snapshots {
		snap := &g.parallel.snapshots[i]
		it := &g.parallel.intents[i]

		if !g.world.Alive(snap.Entity) {
			continue
		}
		force := g.forceMap.Get(snap.Entity)
		cell := g.cellMap.Get(snap.Entity)

		force.X, force.Y = it.ForceX, it.ForceY
		force.Spin += it.Spin
		cell.LastUpdated = g.now
		cell.Fitness.Push(it.Fitness)

		if it.Action.Shoot {
			cell.LastFired = g.now
			g.spawnProjectile(cell.ID, snap.Pos, snap.Rot.Heading+it.Spin)
		}

		if snap.Capture {
			g.focus.capture(it)
		}
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}

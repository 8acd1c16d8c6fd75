package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&EngineInfo{},
	&Scene{},
	&Run{},
	&Pedestrian{},
	&TrajectoryPoint{},
	&DensityCell{},
	&TickPerformance{},
}

var DatabaseModelsSQLite = []interface{}{
	&EngineInfo{},
	&Scene{},
	&Run{},
	&Pedestrian{},
	&TrajectoryPoint{},
	&DensityCell{},
	&TickPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// EngineInfo contains information about the engine instance writing to this database
type EngineInfo struct {
	gorm.Model
	InstanceName  string `json:"instanceName" gorm:"size:127"`
	EngineVersion string `json:"engineVersion" gorm:"size:64"`
	Description   string `json:"description" gorm:"size:255"`
}

func (*EngineInfo) TableName() string {
	return "engine_infos"
}

// TickPerformance is the model for per-tick engine performance metrics
type TickPerformance struct {
	Time            time.Time    `json:"time" gorm:"type:timestamptz;index:idx_time"`
	RunID           uint         `json:"runId" gorm:"index:idx_tickperformance_run_id"`
	Run             Run          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	SimTimeMs       int64        `json:"simTimeMs"`
	TickDurationMs  float32      `json:"tickDurationMs"`
	PedestrianCount uint16       `json:"pedestrianCount"`
	Workers         uint8        `json:"workers"`
	QueueLengths    QueueLengths `json:"queueLengths" gorm:"embedded;embeddedPrefix:queue_"`
}

func (*TickPerformance) TableName() string {
	return "tick_performances"
}

// QueueLengths is the model for the recorder queue backlogs
type QueueLengths struct {
	Trajectories uint16 `json:"trajectories"`
	DensityCells uint16 `json:"densityCells"`
	TickStats    uint16 `json:"tickStats"`
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Scene is the main model for a walkable environment
type Scene struct {
	gorm.Model
	Name       string         `json:"name" gorm:"size:127"`
	SourceEPSG int            `json:"sourceEPSG" gorm:"default:3857"`
	Boundaries datatypes.JSON `json:"boundaries" gorm:"default:'[]'"` // obstacle outlines as WKT strings
	Runs       []Run
}

func (*Scene) TableName() string {
	return "scenes"
}

func (s *Scene) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existingScene Scene
	err = db.Where("name = ?", s.Name).First(&existingScene).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(s).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*s = existingScene
	return false, nil
}

// Run is the main model for a simulation run
type Run struct {
	gorm.Model
	Name            string       `json:"name" gorm:"size:200"`
	StartTime       time.Time    `json:"startTime" gorm:"type:timestamptz;index:idx_run_start"`
	EndTime         sql.NullTime `json:"endTime" gorm:"type:timestamptz"`
	SceneID         uint
	Scene           Scene   `gorm:"foreignkey:SceneID"`
	TimeStep        float64 `json:"timeStep" gorm:"default:0.05"`
	Integrator      string  `json:"integrator" gorm:"size:64"`
	ForceModel      string  `json:"forceModel" gorm:"size:64"`
	Seed            uint64  `json:"seed"`
	EngineVersion   string  `json:"engineVersion" gorm:"size:64;default:1.0.0"`
	Tag             string  `json:"tag" gorm:"size:127"`
	PedestrianCount int     `json:"pedestrianCount"`

	Pedestrians      []Pedestrian
	TickPerformances []TickPerformance
}

func (*Run) TableName() string {
	return "runs"
}

// Pedestrian is one agent registered with a run.
// Uses composite primary key (RunID, PedID).
type Pedestrian struct {
	RunID          uint           `json:"runId" gorm:"primaryKey;autoIncrement:false"`
	PedID          string         `json:"pedId" gorm:"primaryKey;size:64"`
	Run            Run            `gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	CrowdName      string         `json:"crowdName" gorm:"size:64"`
	NormalDesired  float64        `json:"normalDesired"`
	MaximumDesired float64        `json:"maximumDesired"`
	StartPosition  geom.Point     `json:"startPosition"`
	Route          datatypes.JSON `json:"route" gorm:"default:'[]'"` // waypoint names in visit order
}

func (*Pedestrian) TableName() string {
	return "pedestrians"
}

func (p *Pedestrian) Get(db *gorm.DB) (err error) {
	err = db.Where(&p).Order(
		"created_at DESC",
	).First(&p).Error
	return err
}

// TrajectoryPoint is one position sample of one pedestrian.
// PedID references the Pedestrian's PedID within the run.
type TrajectoryPoint struct {
	RunID     uint       `json:"runId" gorm:"index:idx_trajectory_run_id"`
	PedID     string     `json:"pedId" gorm:"size:64;index:idx_trajectory_ped_id"`
	SimTimeMs int64      `json:"simTimeMs" gorm:"index:idx_trajectory_sim_time"`
	Position  geom.Point `json:"position"`
	VelocityX float64    `json:"velocityX"`
	VelocityY float64    `json:"velocityY"`
	Speed     float32    `json:"speed"`
}

func (*TrajectoryPoint) TableName() string {
	return "trajectory_points"
}

// DensityCell is one occupied grid cell at a sample time
type DensityCell struct {
	RunID     uint    `json:"runId" gorm:"index:idx_density_run_id"`
	SimTimeMs int64   `json:"simTimeMs" gorm:"index:idx_density_sim_time"`
	Col       int     `json:"col"`
	Row       int     `json:"row"`
	Count     int     `json:"count"`
	Density   float64 `json:"density"`
	CellSize  float64 `json:"cellSize"`
	OriginX   float64 `json:"originX"`
	OriginY   float64 `json:"originY"`
}

func (*DensityCell) TableName() string {
	return "density_cells"
}

package server

import (
	"fmt"

	"github.com/tabweave/tabweave/pkg/domain/train"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/server.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ServerConfigMarshall struct {
	Port      int32                    `yaml:"port"`
	Artifacts *ArtifactsConfigMarshall `yaml:"artifacts"`
	Dataset   *DatasetConfigMarshall   `yaml:"dataset"`
	Schema    string                   `yaml:"schema"`
	Training  *TrainingConfigMarshall  `yaml:"training,omitempty"`
	Tracker   *TrackerConfigMarshall   `yaml:"tracker,omitempty"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

func (m *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	training := m.Training
	if training == nil {
		training = &TrainingConfigMarshall{}
	}
	c := &ServerConfig{
		port:      required(m.Port, path+".port"),
		artifacts: nonnil(m.Artifacts, path+".artifacts").trySeal(path + ".artifacts"),
		dataset:   nonnil(m.Dataset, path+".dataset").trySeal(path + ".dataset"),
		schema:    required(m.Schema, path+".schema"),
		training:  training.trySeal(path + ".training"),
	}
	if m.Tracker != nil {
		c.tracker = m.Tracker.trySeal(path + ".tracker")
	}
	return c
}

type ArtifactsConfigMarshall struct {
	Root string `yaml:"root"`
}

func (m *ArtifactsConfigMarshall) trySeal(path string) *ArtifactsConfig {
	return &ArtifactsConfig{
		root: required(m.Root, path+".root"),
	}
}

type DatasetConfigMarshall struct {
	URI        string `yaml:"uri"`
	Collection string `yaml:"collection"`
}

func (m *DatasetConfigMarshall) trySeal(path string) *DatasetConfig {
	return &DatasetConfig{
		uri:        required(m.URI, path+".uri"),
		collection: required(m.Collection, path+".collection"),
	}
}

type TrainingConfigMarshall struct {
	Seed         int64   `yaml:"seed,omitempty"`
	LearningRate float64 `yaml:"learningRate,omitempty"`
	Epochs       int     `yaml:"epochs,omitempty"`
	TestRatio    float64 `yaml:"testRatio,omitempty"`
}

func (m *TrainingConfigMarshall) trySeal(path string) *TrainingConfig {
	cfg := train.DefaultConfig()
	if m.Seed != 0 {
		cfg.Seed = m.Seed
	}
	if m.LearningRate != 0 {
		cfg.LearningRate = m.LearningRate
	}
	if m.Epochs != 0 {
		cfg.Epochs = m.Epochs
	}

	testRatio := m.TestRatio
	if testRatio == 0 {
		testRatio = 0.2
	}
	if testRatio <= 0 || 1 <= testRatio {
		panic(fmt.Sprintf("%s.testRatio should be in (0, 1): %f", path, testRatio))
	}

	return &TrainingConfig{train: cfg, testRatio: testRatio}
}

type TrackerConfigMarshall struct {
	Before string `yaml:"before,omitempty"`
	After  string `yaml:"after,omitempty"`
}

func (m *TrackerConfigMarshall) trySeal(path string) *TrackerConfig {
	if m.Before == "" && m.After == "" {
		panic(path + " needs at least one of before/after")
	}
	return &TrackerConfig{beforeURL: m.Before, afterURL: m.After}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}

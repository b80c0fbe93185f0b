// Package server holds the configuration of the tabweave server process.
//
// Configuration is read from a yaml file into mutable Marshall types,
// then sealed into the immutable types below. Everything after startup
// reads the sealed form only.
package server

import (
	"strings"

	"github.com/tabweave/tabweave/pkg/domain/train"
)

type ServerConfig struct {
	port      int32
	artifacts *ArtifactsConfig
	dataset   *DatasetConfig
	schema    string
	training  *TrainingConfig
	tracker   *TrackerConfig
}

func (c *ServerConfig) Port() int32 {
	return c.port
}

func (c *ServerConfig) Artifacts() *ArtifactsConfig {
	return c.artifacts
}

func (c *ServerConfig) Dataset() *DatasetConfig {
	return c.dataset
}

// Filepath of the dataset schema declaration.
func (c *ServerConfig) Schema() string {
	return c.schema
}

func (c *ServerConfig) Training() *TrainingConfig {
	return c.training
}

// Tracker is nil when no experiment tracker is configured.
func (c *ServerConfig) Tracker() *TrackerConfig {
	return c.tracker
}

// ArtifactsConfig locates the artifact store.
type ArtifactsConfig struct {
	root string
}

// Root is a local directory path, or an "s3://bucket/prefix" URL.
func (a *ArtifactsConfig) Root() string {
	return a.root
}

func (a *ArtifactsConfig) IsS3() bool {
	return strings.HasPrefix(a.root, "s3://")
}

// Bucket and Prefix split an s3 root. Meaningless unless IsS3.
func (a *ArtifactsConfig) Bucket() string {
	rest := strings.TrimPrefix(a.root, "s3://")
	bucket, _, _ := strings.Cut(rest, "/")
	return bucket
}

func (a *ArtifactsConfig) Prefix() string {
	rest := strings.TrimPrefix(a.root, "s3://")
	_, prefix, _ := strings.Cut(rest, "/")
	return prefix
}

// DatasetConfig locates the upstream dataset.
type DatasetConfig struct {
	uri        string
	collection string
}

// Connection string for the dataset database.
func (d *DatasetConfig) URI() string {
	return d.uri
}

// Collection (table) exported as the training dataset.
func (d *DatasetConfig) Collection() string {
	return d.collection
}

type TrainingConfig struct {
	train     train.Config
	testRatio float64
}

func (t *TrainingConfig) Train() train.Config {
	return t.train
}

// TestRatio is the held-out share of rows, in (0, 1).
func (t *TrainingConfig) TestRatio() float64 {
	return t.testRatio
}

// TrackerConfig names webhook endpoints notified around training runs.
type TrackerConfig struct {
	beforeURL string
	afterURL  string
}

func (t *TrackerConfig) BeforeURL() string {
	return t.beforeURL
}

func (t *TrackerConfig) AfterURL() string {
	return t.afterURL
}

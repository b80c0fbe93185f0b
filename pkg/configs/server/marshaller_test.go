package server_test

import (
	"testing"

	kcs "github.com/tabweave/tabweave/pkg/configs/server"
)

func TestLoadServerConfig(t *testing.T) {

	t.Run("it can be created from a config file", func(t *testing.T) {
		result, err := kcs.LoadServerConfig("./testdata/config.yaml")

		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}
		if result.Port() != 8080 {
			t.Errorf("unmatch port:%d, expected:%d", result.Port(), 8080)
		}
		expectedRoot := "/var/lib/tabweave/runs"
		if result.Artifacts().Root() != expectedRoot {
			t.Errorf("unmatch artifacts root:%s, expected:%s", result.Artifacts().Root(), expectedRoot)
		}
		if result.Artifacts().IsS3() {
			t.Errorf("artifacts root %s should not be s3", result.Artifacts().Root())
		}
		expectedURI := "postgres://tabweave-test-pgdb-svc:32555/tabweave"
		if result.Dataset().URI() != expectedURI {
			t.Errorf("unmatch dataset uri:%s, expected:%s", result.Dataset().URI(), expectedURI)
		}
		if result.Dataset().Collection() != "customers" {
			t.Errorf("unmatch collection:%s, expected:%s", result.Dataset().Collection(), "customers")
		}
		if result.Schema() != "/etc/tabweave/schema.yaml" {
			t.Errorf("unmatch schema:%s", result.Schema())
		}
		training := result.Training()
		if training.Train().Seed != 42 {
			t.Errorf("unmatch seed:%d, expected:%d", training.Train().Seed, 42)
		}
		if training.Train().LearningRate != 0.05 {
			t.Errorf("unmatch learningRate:%f, expected:%f", training.Train().LearningRate, 0.05)
		}
		if training.Train().Epochs != 250 {
			t.Errorf("unmatch epochs:%d, expected:%d", training.Train().Epochs, 250)
		}
		if training.TestRatio() != 0.25 {
			t.Errorf("unmatch testRatio:%f, expected:%f", training.TestRatio(), 0.25)
		}
		tracker := result.Tracker()
		if tracker == nil {
			t.Fatal("tracker should be configured")
		}
		if tracker.BeforeURL() != "" {
			t.Errorf("unmatch tracker before:%s, expected empty", tracker.BeforeURL())
		}
		if tracker.AfterURL() != "http://tracker.local:9000/hooks/run" {
			t.Errorf("unmatch tracker after:%s", tracker.AfterURL())
		}
	})

	t.Run("it fills training defaults when the section is omitted", func(t *testing.T) {
		result, err := kcs.Unmarshal([]byte(`
port: 8080
artifacts:
  root: "s3://tabweave-artifacts/prod/runs"
dataset:
  uri: postgres://localhost:5432/tabweave
  collection: customers
schema: ./schema.yaml
`))
		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}

		training := result.Training()
		if training.Train().Seed != 1 {
			t.Errorf("unmatch default seed:%d", training.Train().Seed)
		}
		if training.Train().LearningRate != 0.1 {
			t.Errorf("unmatch default learningRate:%f", training.Train().LearningRate)
		}
		if training.Train().Epochs != 400 {
			t.Errorf("unmatch default epochs:%d", training.Train().Epochs)
		}
		if training.TestRatio() != 0.2 {
			t.Errorf("unmatch default testRatio:%f", training.TestRatio())
		}
		if result.Tracker() != nil {
			t.Errorf("tracker should not be configured, but: %+v", result.Tracker())
		}

		artifacts := result.Artifacts()
		if !artifacts.IsS3() {
			t.Errorf("artifacts root %s should be s3", artifacts.Root())
		}
		if artifacts.Bucket() != "tabweave-artifacts" {
			t.Errorf("unmatch bucket:%s", artifacts.Bucket())
		}
		if artifacts.Prefix() != "prod/runs" {
			t.Errorf("unmatch prefix:%s", artifacts.Prefix())
		}
	})

	t.Run("it panics for a config missing required fields", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("sealing should panic, but not")
			}
		}()
		kcs.Unmarshal([]byte(`
port: 8080
dataset:
  uri: postgres://localhost:5432/tabweave
  collection: customers
schema: ./schema.yaml
`))
	})
}

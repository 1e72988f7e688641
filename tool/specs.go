package tool

import (
	"fmt"

	"github.com/NieAnim/MayaAgent/config"
)

// Tool categories, in registration order.
const (
	CategoryScene     = "scene"
	CategoryAnimation = "animation"
	CategoryWorkflow  = "workflow"
	CategoryCode      = "code"
	CategoryRigging   = "rigging"
	CategoryExport    = "export"
	CategoryMocap     = "mocap"
	CategoryVision    = "vision"
)

// RegisterAll loads every tool category into the registry. Each category
// is isolated: a failure registering one category is recorded and the
// remaining categories still load, so a broken category degrades the
// catalog instead of emptying it. The returned map holds one entry per
// failed category (empty on full success).
func RegisterAll(r *Registry) map[string]error {
	categories := []struct {
		name string
		load func() []Spec
	}{
		{CategoryScene, sceneSpecs},
		{CategoryAnimation, animationSpecs},
		{CategoryWorkflow, workflowSpecs},
		{CategoryCode, codeSpecs},
		{CategoryRigging, riggingSpecs},
		{CategoryExport, exportSpecs},
		{CategoryMocap, mocapSpecs},
		{CategoryVision, visionSpecs},
	}

	failures := make(map[string]error)
	for _, cat := range categories {
		if err := registerCategory(r, cat.name, cat.load); err != nil {
			failures[cat.name] = err
			if config.Debug {
				config.DebugLog.Printf("[Tools] Failed to register category %s: %v", cat.name, err)
			}
		}
	}

	if config.Debug {
		config.DebugLog.Printf("[Tools] Registered %d tools (%d categories failed)", r.Len(), len(failures))
	}
	return failures
}

// registerCategory registers one category's specs inside an error
// boundary so a panicking spec builder cannot take down startup.
func registerCategory(r *Registry, name string, load func() []Spec) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("category %s panicked: %v", name, p)
		}
	}()

	for _, spec := range load() {
		spec.Category = name
		if regErr := r.Register(spec); regErr != nil {
			return regErr
		}
	}
	return nil
}

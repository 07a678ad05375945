package devbackend

import (
	"fmt"

	"evalgo.org/schemaeditor/models"
)

// Seed creates name with a small sample topology: a FIX connection feeding
// a codec, an act box, an event store, one dictionary related the legacy way
// and links on both routers.
func (r *Repository) Seed(name string) error {
	if _, err := r.Create(name); err != nil {
		return err
	}

	mq := func(n string, attrs ...string) models.Pin {
		return models.Pin{Name: n, ConnectionType: models.ConnectionMQ, Attributes: attrs}
	}
	grpc := func(n string) models.Pin {
		return models.Pin{Name: n, ConnectionType: models.ConnectionGRPC}
	}

	entities := []models.Entity{
		&models.Box{Name: "conn-fix", Kind: models.KindBox, Spec: models.BoxSpec{
			Type: "th2-conn", ImageName: "ghcr.io/th2-net/th2-conn-fix", ImageVersion: "3.8.0",
			Pins: []models.Pin{mq("out_raw", "raw", "publish", "store"), mq("in_raw", "raw", "subscribe", "send")},
		}},
		&models.Box{Name: "codec-fix", Kind: models.KindBox, Spec: models.BoxSpec{
			Type: "th2-codec", ImageName: "ghcr.io/th2-net/th2-codec-fix", ImageVersion: "3.11.0",
			Pins: []models.Pin{
				mq("in_codec_decode", "decoder_in", "subscribe"),
				mq("out_codec_decode", "decoder_out", "publish"),
				mq("in_codec_encode", "encoder_in", "subscribe"),
				mq("out_codec_encode", "encoder_out", "publish"),
			},
		}},
		&models.Box{Name: "act", Kind: models.KindCoreBox, Spec: models.BoxSpec{
			Type: "th2-act", ImageName: "ghcr.io/th2-net/th2-act", ImageVersion: "3.4.0",
			Pins: []models.Pin{mq("from_codec", "parsed", "subscribe"), mq("to_send", "parsed", "publish"), grpc("server"), grpc("to_check1")},
		}},
		&models.Box{Name: "check1", Kind: models.KindCoreBox, Spec: models.BoxSpec{
			Type: "th2-check1", ImageName: "ghcr.io/th2-net/th2-check1", ImageVersion: "3.9.0",
			Pins: []models.Pin{grpc("server"), mq("from_codec", "parsed", "subscribe")},
		}},
		&models.Box{Name: "estore", Kind: models.KindEstore, Spec: models.BoxSpec{
			Type: "th2-estore", ImageName: "ghcr.io/th2-net/th2-estore", ImageVersion: "3.5.0",
		}},
		&models.Dictionary{Name: "fix50-generic", Kind: models.KindDictionary, Spec: models.DictionarySpec{
			Data: `<dictionary name="FIX50"/>`,
		}},
		&models.LinkDefinition{Name: "links-main", Kind: models.KindLink, Spec: models.LinkDefinitionSpec{
			BoxesRelation: &models.BoxesRelation{
				RouterMQ: []models.Link{
					link("conn-to-codec", "conn-fix", "out_raw", "codec-fix", "in_codec_decode"),
					link("codec-to-act", "codec-fix", "out_codec_decode", "act", "from_codec"),
					link("act-to-codec", "act", "to_send", "codec-fix", "in_codec_encode"),
					link("codec-to-conn", "codec-fix", "out_codec_encode", "conn-fix", "in_raw"),
					link("codec-to-check1", "codec-fix", "out_codec_decode", "check1", "from_codec"),
				},
				RouterGRPC: []models.Link{
					link("act-to-check1", "act", "to_check1", "check1", "server"),
				},
			},
			DictionariesRelation: []models.DictionaryRelation{{
				Name:       "codec-fix-dictionary",
				Box:        "codec-fix",
				Dictionary: models.DictionaryRef{Name: "fix50-generic", Type: "MAIN"},
			}},
		}},
	}

	changes := make([]models.RequestModel, 0, len(entities))
	for _, e := range entities {
		changes = append(changes, models.RequestModel{Operation: models.OperationAdd, Payload: e})
	}
	result, err := r.Apply(name, changes)
	if err != nil {
		return err
	}
	if !result.ValidationErrors.Empty() {
		return fmt.Errorf("seed %s rejected: %+v", name, *result.ValidationErrors)
	}
	return nil
}

func link(name, fromBox, fromPin, toBox, toPin string) models.Link {
	return models.Link{
		Name: name,
		From: &models.LinkEndpoint{Box: fromBox, Pin: fromPin},
		To:   &models.LinkEndpoint{Box: toBox, Pin: toPin},
	}
}

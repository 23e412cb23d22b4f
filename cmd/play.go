package cmd

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/key"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/player"
	"github.com/playsync/playsync/position"
	"github.com/playsync/playsync/session"
	"github.com/playsync/playsync/tui"
	"github.com/spf13/viper"
)

// play runs one session for source in a fresh mpv window until the user quits.
func play(source string, native bool) (err error) {
	store, err := position.FromConfig()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	path := viper.GetString(key.PlayerPath)
	mpv := player.NewMPV(path, viper.GetStringSlice(key.PlayerArgs)...)
	if err := mpv.Start(); err != nil {
		return err
	}
	defer func() {
		if closeErr := mpv.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	var factory engine.Factory = player.Factory{Path: path}
	if native {
		factory = nil
	}

	controller := session.NewController(engine.NewAdapter(factory), store, session.Options{
		Config:       engine.ConfigFromViper(),
		SaveInterval: time.Duration(viper.GetInt(key.PositionSaveInterval)) * time.Second,
	})
	defer func() {
		if closeErr := controller.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	s, err := controller.Open(mpv, source)
	if err != nil {
		return err
	}
	log.Infof("playing %s in %s mode", s.Source(), s.Mode())

	return tui.Run(s, tui.Options{
		Title:    s.Source(),
		SeekStep: viper.GetFloat64(key.TUISeekStep),
		Done:     mpv.Wait(),
	})
}

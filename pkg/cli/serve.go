package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	server "github.com/Deze-Tingz/yuh-blockin-sub001/pkg/controller/http"
	websocket_ctrl "github.com/Deze-Tingz/yuh-blockin-sub001/pkg/controller/websocket"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/hook"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/identity"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/isolate"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/tracker"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/usecase"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe(loggerCfg *config.Logger) *cli.Command {
	var (
		addr            string
		userID          string
		spawnBackground bool
		firestoreCfg    config.Firestore
		stateCfg        config.LocalState
		fcmCfg          config.FCM
		slackCfg        config.Slack
		deliveryCfg     config.Delivery
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "Listen address of the REST API and hook event stream",
				Value:       "127.0.0.1:8080",
				Sources:     cli.EnvVars("YUHBLOCKIN_ADDR"),
				Destination: &addr,
			},
			userFlag(&userID, "Account of this device; the last known one is read from local state when empty"),
			&cli.BoolFlag{
				Name:        "background",
				Usage:       "Spawn the isolated background delivery process",
				Sources:     cli.EnvVars("YUHBLOCKIN_BACKGROUND"),
				Destination: &spawnBackground,
			},
		},
		firestoreCfg.Flags(),
		stateCfg.Flags(),
		fcmCfg.Flags(),
		slackCfg.Flags(),
		deliveryCfg.Flags(),
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the foreground delivery surface with its REST API",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := deliveryCfg.Validate(); err != nil {
				return err
			}
			logger := logging.From(ctx)
			logger.Info("starting serve",
				"addr", addr,
				"firestore", firestoreCfg,
				"state", stateCfg,
				"fcm", fcmCfg,
				"slack", slackCfg,
				"delivery", deliveryCfg,
			)

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			repo, closeRepo, err := openRepository(ctx, &firestoreCfg, true)
			defer closeRepo()
			if err != nil {
				return err
			}

			kv, closeKV, err := stateCfg.Configure()
			defer closeKV()
			if err != nil {
				return err
			}

			ids := identity.New(kv)
			recipient := types.UserID(userID)
			if recipient == types.EmptyUserID {
				if recipient, err = ids.Recipient(ctx); err != nil {
					return err
				}
			} else if err := ids.SetRecipient(ctx, recipient); err != nil {
				return err
			}

			hub := websocket_ctrl.NewHub(ctx)
			go hub.Run()
			defer func() {
				if err := hub.Close(); err != nil {
					logger.Warn("failed to close event hub", logging.ErrAttr(err))
				}
			}()
			hooks := hook.Multi{hub}

			pusher, err := fcmCfg.Configure(ctx)
			if err != nil {
				return err
			}

			ucOptions := []usecase.Option{
				usecase.WithRepository(repo),
				usecase.WithHooks(hooks),
				usecase.WithTracker(tracker.New(kv, tracker.WithHooks(hooks))),
				usecase.WithSpamGuard(spamguard.New(kv, deliveryCfg.SpamGuardOptions()...)),
				usecase.WithAckWindow(deliveryCfg.AckWindow()),
			}
			if pusher != nil {
				ucOptions = append(ucOptions, usecase.WithPushSender(pusher))
			}
			uc := usecase.New(ucOptions...)

			foregroundPresenter, err := newPresenter(c.Root().Writer, kv, &slackCfg, types.SurfaceForeground)
			if err != nil {
				return err
			}
			foreground := dispatch.New(types.SurfaceForeground, foregroundPresenter,
				dispatch.WithStore(repo),
				dispatch.WithHooks(hooks),
				dispatch.WithReceivers(uc.Receivers()),
				dispatch.WithFreshness(deliveryCfg.Freshness()),
			)

			pushPresenter, err := newPresenter(c.Root().Writer, kv, nil, types.SurfacePush)
			if err != nil {
				return err
			}
			pushSurface := dispatch.New(types.SurfacePush, pushPresenter,
				dispatch.WithHooks(hooks),
				dispatch.WithReceivers(uc.Receivers()),
			)

			var host *isolate.Host
			if spawnBackground {
				if host, err = spawnBackgroundProcess(ctx, loggerCfg, &firestoreCfg, &stateCfg, &deliveryCfg, recipient); err != nil {
					return err
				}
				defer func() {
					if err := host.Close(); err != nil {
						logger.Warn("background process did not stop cleanly", logging.ErrAttr(err))
					}
				}()
			}

			retry := supervisor.WithRetryInterval(deliveryCfg.RetryInterval())
			liveness := supervisor.WithLiveness(deliveryCfg.LivenessInterval(), ids.Recipient)
			inbox := foreground.Supervise(repo, retry, liveness,
				supervisor.WithRecipientObserver(forwardRecipient(host)))
			sent := uc.WatchSent(retry, liveness)
			if recipient == types.EmptyUserID {
				logger.Warn("no account configured, only the REST API is served (--user)")
			}
			inbox.Start(ctx, recipient)
			defer inbox.Stop()
			sent.Start(ctx, recipient)
			defer sent.Stop()

			go uc.RunTimeoutChecks(ctx, deliveryCfg.TimeoutCheckInterval())

			httpServer := http.Server{
				Addr: addr,
				Handler: server.New(uc,
					server.WithEventStream(websocket_ctrl.NewHandler(hub).HandleEvents),
					server.WithPushHandler(pushSurface),
				),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				logger.Info("listening", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				return goerr.Wrap(err, "http server stopped", goerr.V("addr", addr))
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}

// forwardRecipient hands identity changes seen by the foreground to the
// background process, when one was spawned.
func forwardRecipient(host *isolate.Host) func(ctx context.Context, id types.UserID) {
	return func(ctx context.Context, id types.UserID) {
		if host == nil {
			return
		}
		if err := host.UpdateRecipient(id); err != nil {
			errs.Handle(ctx, goerr.Wrap(err, "failed to forward recipient to background process",
				goerr.V("recipient", id)))
		}
	}
}

// spawnBackgroundProcess starts this binary's background command and hands
// it the current identity over the control channel.
func spawnBackgroundProcess(ctx context.Context, loggerCfg *config.Logger, firestoreCfg *config.Firestore, stateCfg *config.LocalState, deliveryCfg *config.Delivery, recipient types.UserID) (*isolate.Host, error) {
	if !firestoreCfg.IsConfigured() {
		return nil, goerr.New("the background process needs the shared alert store (--firestore-project-id)")
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to locate executable")
	}

	args := append(loggerCfg.Args(), "background")
	args = append(args, firestoreCfg.Args()...)
	args = append(args, stateCfg.Args()...)
	args = append(args, deliveryCfg.Args()...)

	host, err := isolate.Spawn(ctx, exe, args...)
	if err != nil {
		return nil, err
	}
	if recipient != types.EmptyUserID {
		if err := host.UpdateRecipient(recipient); err != nil {
			_ = host.Close()
			return nil, err
		}
	}
	return host, nil
}

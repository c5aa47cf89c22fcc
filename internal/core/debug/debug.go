package debug

import (
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// StartUtilities spins off the services associated with debug mode.
func StartUtilities(logger *logrus.Logger, pprofPort int) {
	startPprofServer(logger, pprofPort)
}

// This function starts the default pprof HTTP server that can be accessed via localhost
// to get runtime information about the server. See https://golang.org/pkg/net/http/pprof/
func startPprofServer(logger *logrus.Logger, pprofPort int) {
	listenerAddr := fmt.Sprintf("localhost:%d", pprofPort)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Infof("error starting pprof server: %s", err)
		}
	}()
}

var dumpConfig = spew.ConfigState{Indent: "  ", DisableMethods: true}

// PrintFrame writes a hex/ascii dump of a decoded frame to w, used when
// frame logging is enabled in the server config.
func PrintFrame(w io.Writer, tag int32, payload []byte, fromClient bool) {
	direction := "server->client"
	if fromClient {
		direction = "client->server"
	}

	fmt.Fprintf(w, "[%s] tag=0x%02X length=%d\n", direction, tag, len(payload))
	dumpConfig.Fdump(w, payload)
}

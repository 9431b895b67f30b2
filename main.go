package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/index"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Build   struct {
		Input  string `help:"Plain-text edge list: one 'start_id target_id start_lat start_lon target_lat target_lon' line per edge, lat/lon in degrees." placeholder:"<edge-file>" arg:"" type:"existingfile"`
		Ram    string `help:"Output path for the 4 MiB RAM directory." placeholder:"<ram.idx>" default:"ram.idx"`
		Bucket string `help:"Output path for the bucket file." placeholder:"<file.idx>" default:"file.idx"`
	} `cmd:"" help:"Builds a grid index from a plain-text edge list."`
	Nearest struct {
		Ram    string  `help:"Path to the RAM directory." placeholder:"<ram.idx>" default:"ram.idx"`
		Bucket string  `help:"Path to the bucket file." placeholder:"<file.idx>" default:"file.idx"`
		Lat    float64 `help:"Query latitude in degrees." arg:""`
		Lon    float64 `help:"Query longitude in degrees." arg:""`
	} `cmd:"" help:"Finds the nearest edge to a coordinate."`
	Route struct {
		Ram       string  `help:"Path to the RAM directory." placeholder:"<ram.idx>" default:"ram.idx"`
		Bucket    string  `help:"Path to the bucket file." placeholder:"<file.idx>" default:"file.idx"`
		SourceLat float64 `help:"Source latitude in degrees." arg:""`
		SourceLon float64 `help:"Source longitude in degrees." arg:""`
		TargetLat float64 `help:"Target latitude in degrees." arg:""`
		TargetLon float64 `help:"Target longitude in degrees." arg:""`
	} `cmd:"" help:"Finds routing-start phantom nodes for a source and target coordinate."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("nngrid"),
		kong.Description("A two-level on-disk nearest-edge grid index for road networks."),
		kong.Vars{
			"version": VERSION,
		},
	)

	switch strings.ToLower(cli.Logging) {
	case "debug":
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	case "trace":
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	case "info":
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	default:
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	switch ctx.Command() {
	case "build <input>":
		err := runBuild(cli.Build.Input, cli.Build.Ram, cli.Build.Bucket)
		sigolo.FatalCheck(err)
	case "nearest <lat> <lon>":
		err := runNearest(cli.Nearest.Ram, cli.Nearest.Bucket, cli.Nearest.Lat, cli.Nearest.Lon)
		sigolo.FatalCheck(err)
	case "route <source-lat> <source-lon> <target-lat> <target-lon>":
		err := runRoute(cli.Route.Ram, cli.Route.Bucket, cli.Route.SourceLat, cli.Route.SourceLon, cli.Route.TargetLat, cli.Route.TargetLon)
		sigolo.FatalCheck(err)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func runBuild(inputPath, ramPath, bucketPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return errors.Wrapf(err, "opening edge file %s", inputPath)
	}
	defer f.Close()

	w, err := index.NewWriter()
	if err != nil {
		return err
	}
	defer w.Close()

	sigolo.Infof("Reading edges from %s", inputPath)

	lineNumber := 0
	edgeCount := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		edge, err := parseEdgeLine(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNumber)
		}

		if err := w.AddEdge(edge); err != nil {
			return errors.Wrapf(err, "adding edge from line %d", lineNumber)
		}
		edgeCount++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "reading edge file %s", inputPath)
	}

	sigolo.Infof("Read %d edges, building index", edgeCount)

	if err := w.Build(ramPath, bucketPath); err != nil {
		return err
	}

	sigolo.Infof("Wrote %s and %s", ramPath, bucketPath)
	return nil
}

func parseEdgeLine(line string) (geo.Edge, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return geo.Edge{}, errors.Errorf("expected 6 fields (start_id target_id start_lat start_lon target_lat target_lon), got %d", len(fields))
	}

	startID, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return geo.Edge{}, errors.Wrap(err, "parsing start_id")
	}
	targetID, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return geo.Edge{}, errors.Wrap(err, "parsing target_id")
	}

	startLat, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return geo.Edge{}, errors.Wrap(err, "parsing start_lat")
	}
	startLon, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return geo.Edge{}, errors.Wrap(err, "parsing start_lon")
	}
	targetLat, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return geo.Edge{}, errors.Wrap(err, "parsing target_lat")
	}
	targetLon, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return geo.Edge{}, errors.Wrap(err, "parsing target_lon")
	}

	start, err := geo.NewCoordinateFromDegrees(startLat, startLon)
	if err != nil {
		return geo.Edge{}, err
	}
	target, err := geo.NewCoordinateFromDegrees(targetLat, targetLon)
	if err != nil {
		return geo.Edge{}, err
	}

	return geo.NewEdge(geo.NodeID(startID), geo.NodeID(targetID), start, target), nil
}

func runNearest(ramPath, bucketPath string, lat, lon float64) error {
	point, err := geo.NewCoordinateFromDegrees(lat, lon)
	if err != nil {
		return err
	}

	reader, err := index.Open(ramPath, bucketPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	nearest, edge, r, err := index.FindNearestPointOnEdge(reader, point)
	if err != nil {
		return err
	}

	fmt.Printf("edge %d->%d at r=%.6f, nearest point (%.6f, %.6f)\n",
		edge.StartID, edge.TargetID, r, nearest.LatDegrees(), nearest.LonDegrees())
	return nil
}

func runRoute(ramPath, bucketPath string, srcLat, srcLon, tgtLat, tgtLon float64) error {
	src, err := geo.NewCoordinateFromDegrees(srcLat, srcLon)
	if err != nil {
		return err
	}
	tgt, err := geo.NewCoordinateFromDegrees(tgtLat, tgtLon)
	if err != nil {
		return err
	}

	reader, err := index.Open(ramPath, bucketPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	phantoms, err := index.FindRoutingStarts(reader, src, tgt)
	if err != nil {
		return err
	}

	fmt.Printf("source: edge %d->%d at r=%.6f, point (%.6f, %.6f)\n",
		phantoms.Source.StartID, phantoms.Source.TargetID, phantoms.Source.R,
		phantoms.Source.Coord.LatDegrees(), phantoms.Source.Coord.LonDegrees())
	fmt.Printf("target: edge %d->%d at r=%.6f, point (%.6f, %.6f)\n",
		phantoms.Target.StartID, phantoms.Target.TargetID, phantoms.Target.R,
		phantoms.Target.Coord.LatDegrees(), phantoms.Target.Coord.LonDegrees())
	return nil
}

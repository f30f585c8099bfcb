package tiler

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/tiler/tilutils"
)

// Statistics describes how much of each container is reserved and pinned
type Statistics struct {
	Containers []tilutils.DetailedStatistics
	Total      tilutils.DetailedStatistics
}

// CalculateStatistics fills stats with the current occupancy of every container
func (t *Tiler) CalculateStatistics(stats *Statistics) {
	t.containerMutex.RLock()
	stats.Containers = make([]tilutils.DetailedStatistics, len(t.containers))
	for i, container := range t.containers {
		stats.Containers[i].Clear()
		container.AddStatistics(&stats.Containers[i].Statistics)
	}
	t.containerMutex.RUnlock()

	for _, block := range t.blocks.Snapshot() {
		for i, container := range t.containers {
			if block.container == container {
				stats.Containers[i].AddBlockDetails(block.Slots(), block.Pinned())
				break
			}
		}
	}

	stats.Total.Clear()
	for i := range stats.Containers {
		stats.Total.AddDetailedStatistics(&stats.Containers[i])
	}
}

func detailedStatisticsJsonData(json *jwriter.ObjectState, stats *tilutils.DetailedStatistics) {
	json.Name("Containers").Int(stats.ContainerCount)
	json.Name("Blocks").Int(stats.BlockCount)
	json.Name("PinnedBlocks").Int(stats.PinnedBlockCount)
	json.Name("ContainerSlots").Int(stats.ContainerSlots)
	json.Name("BlockSlots").Int(stats.BlockSlots)
	json.Name("FreeSlots").Int(stats.FreeSlots())

	if stats.BlockCount > 0 {
		json.Name("BlockSlotsMin").Int(stats.BlockSlotsMin)
		json.Name("BlockSlotsMax").Int(stats.BlockSlotsMax)
	}
}

// BuildStatsString renders the tiler's statistics as JSON. When detailed is true, every container's
// reservations and every live block are included as well.
func (t *Tiler) BuildStatsString(detailed bool) string {
	var stats Statistics
	t.CalculateStatistics(&stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()

	total := obj.Name("Total").Object()
	detailedStatisticsJsonData(&total, &stats.Total)
	total.End()

	device := obj.Name("Device").Object()
	t.device.DeviceJsonData(&device)
	device.End()

	containers := obj.Name("Containers").Array()
	for i, container := range t.containers {
		containerObj := containers.Object()
		statsObj := containerObj.Name("Stats").Object()
		detailedStatisticsJsonData(&statsObj, &stats.Containers[i])
		statsObj.End()

		if detailed {
			t.containerMutex.RLock()
			container.ContainerJsonData(&containerObj)
			t.containerMutex.RUnlock()
		}
		containerObj.End()
	}
	containers.End()

	if detailed {
		blocks := obj.Name("Blocks").Array()
		for _, block := range t.blocks.Snapshot() {
			blockObj := blocks.Object()
			blockObj.Name("Id").Int(int(block.id))
			blockObj.Name("Format").String(block.format.String())
			blockObj.Name("Width").Int(block.width)
			blockObj.Name("Height").Int(block.height)
			blockObj.Name("Area").String(block.area.String())
			blockObj.Name("Pinned").Bool(block.Pinned())
			blockObj.Name("SSPtr").Int(int(block.SSPtr()))
			blockObj.End()
		}
		blocks.End()
	}

	obj.End()
	return string(writer.Bytes())
}

package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/luckypig3400/NEC-Backend/internal/model"
)

// scheduleFilter translates the listing predicate into a query document.
func scheduleFilter(f *model.ScheduleFilter) bson.M {
	filter := bson.M{}
	if f == nil {
		return filter
	}
	if f.DateRange != nil {
		filter[model.KeyCreatedAt] = bson.M{
			"$gte": f.DateRange.From,
			"$lte": f.DateRange.To,
		}
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: f.Search}
		filter["$or"] = bson.A{
			bson.M{model.KeyProcedureCode: re},
			bson.M{model.KeyPatientID: re},
		}
	}
	return filter
}

// sortDoc orders by field and then by _id so equal keys come back in insertion
// order.
func sortDoc(field string, desc bool) bson.D {
	dir := 1
	if desc {
		dir = -1
	}
	if field == "" {
		return bson.D{{Key: model.KeyID, Value: 1}}
	}
	if field == model.KeyID {
		return bson.D{{Key: model.KeyID, Value: dir}}
	}
	return bson.D{{Key: field, Value: dir}, {Key: model.KeyID, Value: 1}}
}

// schedulePipeline is the single aggregate behind a schedule listing: match,
// join one patient and one report, sort, page, then unwrap the joined arrays.
func schedulePipeline(f *model.ScheduleFilter, opts *model.FindOptions) mongo.Pipeline {
	if opts == nil {
		opts = &model.FindOptions{}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scheduleFilter(f)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collPatients},
			{Key: "localField", Value: model.KeyPatientID},
			{Key: "foreignField", Value: model.KeyPatientKey},
			{Key: "as", Value: model.KeyPatient},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collReports},
			{Key: "let", Value: bson.D{{Key: "rid", Value: "$" + model.KeyReportID}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
					{Key: "$eq", Value: bson.A{"$_id", reportIDExpr("$$rid")}},
				}}}}},
			}},
			{Key: "as", Value: model.KeyReport},
		}}},
	}

	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortDoc(opts.Sort, opts.Desc)}})
	if opts.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: opts.Limit}})
	}

	pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.D{
		{Key: model.KeyPatient, Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + model.KeyPatient, 0}}}},
		{Key: model.KeyReport, Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + model.KeyReport, 0}}}},
	}}})

	return pipeline
}

// reportIDExpr coerces the string reportID into an ObjectID. Missing and empty
// ids join nothing; malformed ones fail the aggregate, like the fetch path does.
func reportIDExpr(v string) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$in", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{v, ""}}}, bson.A{""}}}},
		nil,
		bson.D{{Key: "$toObjectId", Value: v}},
	}}}
}
